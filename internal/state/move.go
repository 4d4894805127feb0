package state

type Action uint8

const (
	ActionPickUp        Action = 0
	ActionDecline       Action = 1
	ActionDeclareIntent Action = 2
	ActionCallShowdown  Action = 3
	ActionRebuttal      Action = 4

	MaxAction = ActionRebuttal
)

func (a Action) String() string {
	switch a {
	case ActionPickUp:
		return "pick_up"
	case ActionDecline:
		return "decline"
	case ActionDeclareIntent:
		return "declare_intent"
	case ActionCallShowdown:
		return "call_showdown"
	case ActionRebuttal:
		return "rebuttal"
	default:
		return "unknown"
	}
}

// ConsumesTurn reports whether the action is restricted to the current player
// and hands the turn on when applied.
func (a Action) ConsumesTurn() bool {
	return a == ActionPickUp || a == ActionDecline
}

// MoveRecord is one accepted action. Records are append-only.
type MoveRecord struct {
	MatchID   string `json:"matchId"`
	Actor     string `json:"actor"`
	MoveIndex uint32 `json:"moveIndex"`
	Action    Action `json:"action"`
	Payload   []byte `json:"payload,omitempty"`
	Nonce     uint64 `json:"nonce"`
	Timestamp int64  `json:"timestamp"`
}
