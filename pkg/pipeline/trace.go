// Package pipeline tracks the lifecycle of one inbound request as it moves
// through authorization, store access, optional AI augmentation, persistence,
// and response. A Trace enforces the legal stage order and emits each
// transition as structured log fields.
package pipeline

import (
	"time"

	"go.uber.org/zap"
)

// Stage identifies one step of the request pipeline.
type Stage int

const (
	// StageReceived is the initial stage of every trace.
	StageReceived Stage = iota
	// StageAuthorized means the actor passed the capability check.
	StageAuthorized
	// StageDataFetched means store reads and writes for the request resolved.
	StageDataFetched
	// StagePromptAssembled means the prompt text was built. AI branch only.
	StagePromptAssembled
	// StageAIGenerated means the gateway returned a usable completion.
	StageAIGenerated
	// StagePersisted means record mutations and artifact inserts committed.
	StagePersisted
	// StageResponded is the terminal stage: the response body is final.
	StageResponded
)

// String returns a stable lowercase name for log fields.
func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageAuthorized:
		return "authorized"
	case StageDataFetched:
		return "data_fetched"
	case StagePromptAssembled:
		return "prompt_assembled"
	case StageAIGenerated:
		return "ai_generated"
	case StagePersisted:
		return "persisted"
	case StageResponded:
		return "responded"
	default:
		return "unknown"
	}
}

// CanAdvance reports whether to is a legal successor of from. The AI branch
// (PromptAssembled, AIGenerated) is optional; everything else is mandatory
// and strictly ordered.
func CanAdvance(from, to Stage) bool {
	switch from {
	case StageReceived:
		return to == StageAuthorized
	case StageAuthorized:
		return to == StageDataFetched
	case StageDataFetched:
		return to == StagePromptAssembled || to == StagePersisted
	case StagePromptAssembled:
		return to == StageAIGenerated
	case StageAIGenerated:
		return to == StagePersisted
	case StagePersisted:
		return to == StageResponded
	default:
		return false
	}
}

// Trace follows a single request through the pipeline. It is request-scoped
// and not safe for concurrent use; a request is a single logical flow.
type Trace struct {
	logger    *zap.Logger
	operation string
	current   Stage
	startedAt time.Time
	path      []Stage
	failed    bool
}

// NewTrace starts a trace at StageReceived for a named operation, such as
// "crm.create_lead". A nil logger disables emission.
func NewTrace(logger *zap.Logger, operation string) *Trace {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Trace{
		logger:    logger.Named("pipeline"),
		operation: operation,
		current:   StageReceived,
		startedAt: time.Now(),
		path:      []Stage{StageReceived},
	}
	t.logger.Debug("pipeline stage",
		zap.String("operation", operation),
		zap.String("stage", StageReceived.String()))
	return t
}

// Advance moves the trace to next and reports whether the transition was
// legal. Illegal transitions leave the trace where it was and log an error;
// a failed trace no longer advances. Reaching StageResponded logs the full
// path with the elapsed time.
func (t *Trace) Advance(next Stage) bool {
	if t.failed || !CanAdvance(t.current, next) {
		t.logger.Error("illegal pipeline transition",
			zap.String("operation", t.operation),
			zap.String("from", t.current.String()),
			zap.String("to", next.String()),
			zap.Bool("failed", t.failed))
		return false
	}
	t.current = next
	t.path = append(t.path, next)

	if next == StageResponded {
		t.logger.Info("pipeline complete",
			zap.String("operation", t.operation),
			zap.Strings("path", t.Path()),
			zap.Duration("elapsed", time.Since(t.startedAt)))
		return true
	}
	t.logger.Debug("pipeline stage",
		zap.String("operation", t.operation),
		zap.String("stage", next.String()))
	return true
}

// Fail terminates the trace at its current stage. A forbidden actor fails at
// StageReceived, a missing record at StageDataFetched, a provider fault at
// StagePromptAssembled. The trace rejects every Advance afterwards.
func (t *Trace) Fail(err error) {
	if t.failed {
		return
	}
	t.failed = true
	t.logger.Warn("pipeline aborted",
		zap.String("operation", t.operation),
		zap.String("stage", t.current.String()),
		zap.Duration("elapsed", time.Since(t.startedAt)),
		zap.Error(err))
}

// Stage returns the trace's current stage.
func (t *Trace) Stage() Stage {
	return t.current
}

// Failed reports whether the trace was terminated by Fail.
func (t *Trace) Failed() bool {
	return t.failed
}

// Path returns the visited stage names in order.
func (t *Trace) Path() []string {
	names := make([]string, len(t.path))
	for i, s := range t.path {
		names[i] = s.String()
	}
	return names
}
