package logging

import (
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

var levelsMap = map[logrus.Level]sentry.Level{
	logrus.TraceLevel: sentry.LevelDebug,
	logrus.DebugLevel: sentry.LevelDebug,
	logrus.InfoLevel:  sentry.LevelInfo,
	logrus.WarnLevel:  sentry.LevelWarning,
	logrus.ErrorLevel: sentry.LevelError,
	logrus.FatalLevel: sentry.LevelFatal,
	logrus.PanicLevel: sentry.LevelFatal,
}

// SentryHook forwards logrus entries of the given levels to sentry.
type SentryHook struct {
	levels       []logrus.Level
	hub          *sentry.Hub
	flushTimeout time.Duration
}

func NewSentryHook(levels []logrus.Level) *SentryHook {
	return &SentryHook{
		levels:       levels,
		hub:          sentry.CurrentHub(),
		flushTimeout: 2 * time.Second,
	}
}

func (h *SentryHook) Levels() []logrus.Level {
	return h.levels
}

func (h *SentryHook) Fire(entry *logrus.Entry) error {
	event := sentry.NewEvent()
	event.Level = levelsMap[entry.Level]
	event.Message = entry.Message
	event.Timestamp = entry.Time

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if err, ok := v.(error); ok && k == logrus.ErrorKey {
			event.Exception = append(event.Exception, sentry.Exception{
				Type:  "error",
				Value: err.Error(),
			})
			continue
		}
		extra[k] = v
	}
	event.Extra = extra

	if h.hub.CaptureEvent(event) == nil && h.hub.Client() != nil {
		return errors.New("sentry event not captured")
	}

	// fatal and panic levels end the process right after the hook
	if entry.Level <= logrus.FatalLevel {
		h.hub.Flush(h.flushTimeout)
	}

	return nil
}
