package app

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"

	"github.com/ocentra/ocentra-games/internal/leaderboard"
	"github.com/ocentra/ocentra-games/internal/rules"
	"github.com/ocentra/ocentra-games/internal/state"
	"github.com/ocentra/ocentra-games/internal/types"
)

type replayScoresView struct {
	MatchID  string   `json:"matchId"`
	Players  []string `json:"players"`
	Replay   []int32  `json:"replay"`
	Estimate []int32  `json:"estimate"`
	Moves    int      `json:"moves"`
}

type rankView struct {
	UserID string `json:"userId"`
	Rank   uint16 `json:"rank"`
}

// Query serves JSON views of live state. /record/... returns the committed
// fixed-layout bytes instead.
//
// Paths:
//   - /params
//   - /match/<id>, /match/<id>/moves, /match/<id>/replay_scores
//   - /record/<kind>/<key...>
//   - /dispute/<matchId>/<flagger>
//   - /validator/<id>
//   - /leaderboard/<gameType>/<season>[/rank/<user>]
//   - /user/<id>
//   - /registry/signers, /registry/games
//   - /batch/<id>
func (a *MatchApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	v, err := a.query(strings.TrimSpace(req.Path))
	if err != nil {
		codespace, code, log := errorsmod.ABCIInfo(err, false)
		return &abci.QueryResponse{Codespace: codespace, Code: code, Log: log, Height: a.st.Height}, nil
	}
	if raw, ok := v.([]byte); ok {
		return &abci.QueryResponse{Code: 0, Value: raw, Height: a.st.Height}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return &abci.QueryResponse{Code: 1, Log: err.Error(), Height: a.st.Height}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: a.st.Height}, nil
}

func (a *MatchApp) query(path string) (any, error) {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	st := a.st

	switch {
	case path == "/params":
		return st.Params, nil

	case parts[0] == "match" && len(parts) >= 2:
		m, err := st.Match(parts[1])
		if err != nil {
			return nil, err
		}
		switch {
		case len(parts) == 2:
			return m, nil
		case len(parts) == 3 && parts[2] == "moves":
			moves := st.Moves[m.MatchID]
			if moves == nil {
				moves = []state.MoveRecord{}
			}
			return moves, nil
		case len(parts) == 3 && parts[2] == "replay_scores":
			moves := st.Moves[m.MatchID]
			replay := rules.ReplayScores(m, moves)
			estimate := rules.EstimateScores(m)
			n := int(m.PlayerCount)
			return replayScoresView{
				MatchID:  m.MatchID,
				Players:  m.ActivePlayers(),
				Replay:   replay[:n],
				Estimate: estimate[:n],
				Moves:    len(moves),
			}, nil
		}

	case parts[0] == "record" && len(parts) >= 3:
		return a.store.Record(strings.Join(parts[1:], "/"))

	case parts[0] == "dispute" && len(parts) == 3:
		d := st.Disputes[state.DisputeKey(parts[1], parts[2])]
		if d == nil {
			return nil, types.ErrNotFound.Wrapf("dispute %s/%s", parts[1], parts[2])
		}
		return d, nil

	case parts[0] == "validator" && len(parts) == 2:
		return st.Validator(parts[1])

	case parts[0] == "leaderboard" && (len(parts) == 3 || len(parts) == 5):
		gameType, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return nil, types.ErrPayload.Wrapf("invalid game type %q", parts[1])
		}
		season, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, types.ErrPayload.Wrapf("invalid season %q", parts[2])
		}
		board := st.Leaderboards[state.LeaderboardKey(uint8(gameType), season)]
		if board == nil {
			return nil, types.ErrNotFound.Wrapf("leaderboard %d/%d", gameType, season)
		}
		if len(parts) == 3 {
			return board, nil
		}
		if parts[3] != "rank" {
			break
		}
		return rankView{UserID: parts[4], Rank: leaderboard.RankOf(board, parts[4])}, nil

	case parts[0] == "user" && len(parts) == 2:
		u := st.Users[parts[1]]
		if u == nil {
			return nil, types.ErrNotFound.Wrapf("user %q", parts[1])
		}
		return u, nil

	case path == "/registry/signers":
		return st.Signers, nil

	case path == "/registry/games":
		return st.Games, nil

	case parts[0] == "batch" && len(parts) == 2:
		b := st.Batches[parts[1]]
		if b == nil {
			return nil, types.ErrNotFound.Wrapf("batch %q", parts[1])
		}
		return b, nil
	}
	return nil, types.ErrNotFound.Wrapf("unknown query path %q", path)
}
