// Package pipeline runs the single consumer that turns queued units into typed text.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/history"
	"github.com/rbright/parla/internal/polish"
	"github.com/rbright/parla/internal/queue"
	"github.com/rbright/parla/internal/session"
)

// Unit outcomes reported to metrics and history.
const (
	OutcomeTyped  = "typed"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// Processing stages timed by the worker.
const (
	StageSTT    = "stt"
	StagePolish = "polish"
	StageOutput = "output"
)

// Source yields units until it returns queue.ErrClosed.
type Source interface {
	Pop(ctx context.Context) (session.Unit, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type Typer interface {
	Type(ctx context.Context, text string, isTerminal bool) error
}

// History stores one entry per processed unit.
type History interface {
	Record(ctx context.Context, entry history.Entry) error
}

type Metrics interface {
	RecordStage(ctx context.Context, stage string, d time.Duration)
	RecordUnit(ctx context.Context, outcome string)
}

type Indicator interface {
	BeginProcessing(ctx context.Context)
	EndProcessing(ctx context.Context, err error)
}

// Deps are the worker's collaborators. Source, Transcriber and Typer are required.
type Deps struct {
	Source      Source
	Transcriber Transcriber
	Polisher    polish.Polisher
	Typer       Typer
	History     History
	Metrics     Metrics
	Indicator   Indicator
	// DumpDir receives every unit's WAV when set.
	DumpDir string
	Logger  *slog.Logger
}

// Worker processes units strictly one at a time in queue order.
type Worker struct {
	deps   Deps
	logger *slog.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// NewWorker constructs a worker with no-op fallbacks for optional deps.
func NewWorker(deps Deps) *Worker {
	if deps.Polisher == nil {
		deps.Polisher = polish.Passthrough{}
	}
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{deps: deps, logger: logger}
}

// Processed counts units that finished without error.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Failed counts units abandoned after an error or panic.
func (w *Worker) Failed() int64 { return w.failed.Load() }

// Run pops and processes units until the queue's shutdown sentinel. In-flight
// units run on a context detached from ctx cancellation.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		unit, err := w.deps.Source.Pop(ctx)
		if errors.Is(err, queue.ErrClosed) {
			w.logger.Info("worker stopped", "processed", w.Processed(), "failed", w.Failed())
			return nil
		}
		if err != nil {
			return err
		}
		w.process(context.WithoutCancel(ctx), unit)
	}
}

type result struct {
	outcome    string
	transcript string
	output     string
	err        error
	stages     map[string]time.Duration
}

func (w *Worker) process(ctx context.Context, unit session.Unit) {
	start := time.Now()
	w.deps.Indicator.BeginProcessing(ctx)

	res := w.safeRun(ctx, unit)

	w.deps.Indicator.EndProcessing(ctx, res.err)
	w.deps.Metrics.RecordUnit(ctx, res.outcome)
	for stage, d := range res.stages {
		w.deps.Metrics.RecordStage(ctx, stage, d)
	}

	attrs := []any{
		"session", unit.SessionID,
		"index", unit.SegmentIndex,
		"final", unit.Final,
		"outcome", res.outcome,
		"elapsed_ms", time.Since(start).Milliseconds(),
	}
	if res.err != nil {
		w.failed.Add(1)
		w.logger.Error("unit failed", append(attrs, "error", res.err)...)
	} else {
		w.processed.Add(1)
		w.logger.Info("unit processed", attrs...)
	}

	w.record(ctx, unit, res, start)
}

// safeRun is the per-unit error boundary: panics become failures.
func (w *Worker) safeRun(ctx context.Context, unit session.Unit) (res result) {
	res.stages = make(map[string]time.Duration, 3)
	defer func() {
		if r := recover(); r != nil {
			res.outcome = OutcomeFailed
			res.err = fmt.Errorf("panic: %v", r)
		}
	}()

	w.dump(unit)

	t0 := time.Now()
	text, err := w.deps.Transcriber.Transcribe(ctx, unit.WAV)
	res.stages[StageSTT] = time.Since(t0)
	if err != nil {
		res.outcome = OutcomeFailed
		res.err = fmt.Errorf("transcribe: %w", err)
		return res
	}
	if text == "" {
		res.outcome = OutcomeEmpty
		return res
	}
	res.transcript = text

	t1 := time.Now()
	res.output = w.deps.Polisher.Polish(ctx, text, polish.Request{
		Command:      unit.Mode == session.ModeCommand,
		WindowTitle:  unit.WindowTitle,
		SelectedText: unit.SelectedText,
	})
	res.stages[StagePolish] = time.Since(t1)

	t2 := time.Now()
	err = w.deps.Typer.Type(ctx, res.output, unit.IsTerminal)
	res.stages[StageOutput] = time.Since(t2)
	if err != nil {
		res.outcome = OutcomeFailed
		res.err = fmt.Errorf("type: %w", err)
		return res
	}

	res.outcome = OutcomeTyped
	return res
}

func (w *Worker) record(ctx context.Context, unit session.Unit, res result, start time.Time) {
	if w.deps.History == nil {
		return
	}

	entry := history.Entry{
		ID:           uuid.NewString(),
		SessionID:    unit.SessionID,
		SegmentIndex: unit.SegmentIndex,
		Final:        unit.Final,
		Mode:         string(unit.Mode),
		WindowClass:  unit.WindowClass,
		WindowTitle:  unit.WindowTitle,
		Terminal:     unit.IsTerminal,
		Selection:    unit.SelectedText != "",
		Transcript:   res.transcript,
		Output:       res.output,
		Outcome:      res.outcome,
		STTMillis:    res.stages[StageSTT].Milliseconds(),
		PolishMillis: res.stages[StagePolish].Milliseconds(),
		OutputMillis: res.stages[StageOutput].Milliseconds(),
		QueuedMillis: start.Sub(unit.EnqueuedAt).Milliseconds(),
		CreatedAt:    time.Now(),
	}
	if d, err := audio.WAVDuration(unit.WAV); err == nil {
		entry.AudioMillis = d.Milliseconds()
	}
	if res.err != nil {
		entry.Error = res.err.Error()
	}

	if err := w.deps.History.Record(ctx, entry); err != nil {
		w.logger.Warn("history record failed", "session", unit.SessionID, "error", err)
	}
}

type noopMetrics struct{}

func (noopMetrics) RecordStage(context.Context, string, time.Duration) {}
func (noopMetrics) RecordUnit(context.Context, string)                 {}

type noopIndicator struct{}

func (noopIndicator) BeginProcessing(context.Context)      {}
func (noopIndicator) EndProcessing(context.Context, error) {}
