package store

import (
	"fmt"
	"strings"

	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// badgerLogger routes Badger's printf-style logs into the node logger.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger cmtlog.Logger
}

func (l badgerLogger) msg(format string, args ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(l.msg(format, args...), "src", "badger")
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.logger.Info(l.msg(format, args...), "src", "badger", "level", "warn")
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(l.msg(format, args...), "src", "badger")
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(l.msg(format, args...), "src", "badger")
}
