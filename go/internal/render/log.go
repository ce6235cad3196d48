package render

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/makeitmeme/go/internal/session"
)

// LogRenderer writes each view as one structured log line. It is the
// terminal UI of the memeclient binary.
type LogRenderer struct {
	logger zerolog.Logger
}

// NewLogRenderer renders through logger; a nil logger falls back to the global one
func NewLogRenderer(logger *zerolog.Logger) *LogRenderer {
	if logger == nil {
		logger = &log.Logger
	}
	return &LogRenderer{logger: logger.With().Str("component", "view").Logger()}
}

func (r *LogRenderer) Render(v session.View) {
	switch view := v.(type) {
	case session.NoticeView:
		r.notice(view)
	case session.TimerView:
		// one line per second is noise outside the last ten
		if view.Level != session.LevelCritical {
			return
		}
		r.logger.Info().Str("view", v.ViewName()).Int("remaining", view.Remaining).Msg("hurry up")
	default:
		r.logger.Info().Str("view", v.ViewName()).Interface("data", v).Msg(v.ViewName())
	}
}

func (r *LogRenderer) notice(n session.NoticeView) {
	var ev *zerolog.Event
	switch n.Level {
	case session.NoticeError:
		ev = r.logger.Warn()
	default:
		ev = r.logger.Info()
	}
	ev.Str("view", session.ViewNotice).Str("tone", string(n.Level)).Msg(n.Message)
}
