package ingest

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Trail collects the human-readable ingestion log returned to the caller and mirrors
// each entry to zerolog.
type Trail struct {
	mu      sync.Mutex
	entries []string
	logger  zerolog.Logger
}

func NewTrail(logger zerolog.Logger) *Trail {
	return &Trail{logger: logger}
}

// Add records a successful step.
func (t *Trail) Add(step, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.append(msg)
	t.logger.Info().Str("step", step).Msg(msg)
}

// Fail records a failed step together with its cause.
func (t *Trail) Fail(step string, err error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	t.append(msg)
	t.logger.Warn().Err(err).Str("step", step).Msg(msg)
}

// Entries returns a copy of the trail so far.
func (t *Trail) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Trail) append(msg string) {
	t.mu.Lock()
	t.entries = append(t.entries, msg)
	t.mu.Unlock()
}
