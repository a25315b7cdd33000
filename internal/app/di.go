package app

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/foreground"
	"github.com/rbright/parla/internal/history"
	"github.com/rbright/parla/internal/indicator"
	"github.com/rbright/parla/internal/observe"
	"github.com/rbright/parla/internal/output"
	"github.com/rbright/parla/internal/pipeline"
	"github.com/rbright/parla/internal/polish"
	"github.com/rbright/parla/internal/queue"
	"github.com/rbright/parla/internal/selection"
	"github.com/rbright/parla/internal/session"
	"github.com/rbright/parla/internal/stt"
)

// quitFunc stops the daemon's front half (IPC, capture, hotkeys).
type quitFunc func()

type unitQueue = queue.Queue[session.Unit]

// setupDI builds the daemon's dependency graph. ctx bounds engine setup only.
func setupDI(ctx context.Context, cfg config.Config, logger *slog.Logger, quit quitFunc) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, quit)

	do.Provide(injector, func(i do.Injector) (*unitQueue, error) {
		return queue.New[session.Unit](), nil
	})
	registerObserve(injector)
	registerEngines(ctx, injector)
	registerDesktop(injector)
	registerStorage(injector)
	registerSession(injector)

	return injector
}

func registerObserve(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*observe.Provider, error) {
		return observe.NewProvider()
	})
	do.Provide(injector, func(i do.Injector) (*observe.Metrics, error) {
		provider := do.MustInvoke[*observe.Provider](i)
		return observe.NewMetrics(provider.MeterProvider)
	})
}

func registerEngines(ctx context.Context, injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*stt.Service, error) {
		cfg := do.MustInvoke[config.Config](i)
		return stt.New(ctx, cfg, component(i, "stt"))
	})
	do.Provide(injector, func(i do.Injector) (polish.Polisher, error) {
		cfg := do.MustInvoke[config.Config](i)
		return polish.New(cfg.LLM, component(i, "polish"))
	})
}

func registerDesktop(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (output.Clipboard, error) {
		cfg := do.MustInvoke[config.Config](i)
		return output.NewClipboard(cfg.Output.ClipboardCmd.Argv), nil
	})
	do.Provide(injector, func(i do.Injector) (output.KeySender, error) {
		cfg := do.MustInvoke[config.Config](i)
		return output.NewKeySender(cfg.Output.Keys), nil
	})
	do.Provide(injector, func(i do.Injector) (*output.Injector, error) {
		cfg := do.MustInvoke[config.Config](i)
		return output.NewInjector(
			cfg.Output,
			do.MustInvoke[output.Clipboard](i),
			do.MustInvoke[output.KeySender](i),
			component(i, "output"),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (foreground.Inspector, error) {
		cfg := do.MustInvoke[config.Config](i)
		return foreground.New(cfg.Foreground, component(i, "foreground")), nil
	})
	do.Provide(injector, func(i do.Injector) (*selection.Probe, error) {
		cfg := do.MustInvoke[config.Config](i)
		return selection.NewProbe(
			selection.Config{
				Shortcut:     cfg.Selection.CopyShortcut,
				Timeout:      cfg.Selection.Timeout,
				PollInterval: cfg.Selection.PollInterval,
			},
			do.MustInvoke[output.Clipboard](i),
			do.MustInvoke[output.KeySender](i),
			component(i, "selection"),
		), nil
	})
	do.Provide(injector, func(i do.Injector) (*indicator.Indicator, error) {
		cfg := do.MustInvoke[config.Config](i)
		return indicator.New(cfg.Indicator, component(i, "indicator")), nil
	})
}

// registerStorage provides the history store, or a nil store when history is off.
func registerStorage(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*history.Store, error) {
		cfg := do.MustInvoke[config.Config](i)
		if !cfg.History.Enable {
			return nil, nil
		}
		path, err := historyPath(cfg.History)
		if err != nil {
			return nil, err
		}
		return history.Open(history.Options{
			Path:      path,
			Retention: cfg.History.Retention,
			Logger:    component(i, "history"),
		})
	})
}

func registerSession(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*audio.Recorder, error) {
		cfg := do.MustInvoke[config.Config](i)
		return audio.NewRecorder(recorderConfig(cfg), component(i, "recorder")), nil
	})

	do.Provide(injector, func(i do.Injector) (*pipeline.Worker, error) {
		cfg := do.MustInvoke[config.Config](i)
		deps := pipeline.Deps{
			Source:      do.MustInvoke[*unitQueue](i),
			Transcriber: do.MustInvoke[*stt.Service](i),
			Polisher:    do.MustInvoke[polish.Polisher](i),
			Typer:       do.MustInvoke[*output.Injector](i),
			Metrics:     do.MustInvoke[*observe.Metrics](i),
			Indicator:   do.MustInvoke[*indicator.Indicator](i),
			Logger:      component(i, "worker"),
		}
		if store := do.MustInvoke[*history.Store](i); store != nil {
			deps.History = store
		}
		if cfg.Debug.DumpAudio {
			dir, err := config.StateDir()
			if err != nil {
				return nil, err
			}
			deps.DumpDir = filepath.Join(dir, "debug")
		}
		return pipeline.NewWorker(deps), nil
	})

	do.Provide(injector, func(i do.Injector) (*session.Controller, error) {
		cfg := do.MustInvoke[config.Config](i)
		quit := do.MustInvoke[quitFunc](i)
		return session.NewController(
			session.Config{
				MinFinalDuration: cfg.Session.MinFinalDuration,
				ProbeSelection:   cfg.Selection.Enable,
			},
			session.Deps{
				Recorder:  do.MustInvoke[*audio.Recorder](i),
				Sink:      do.MustInvoke[*unitQueue](i),
				Inspector: do.MustInvoke[foreground.Inspector](i),
				Selection: do.MustInvoke[*selection.Probe](i),
				Indicator: do.MustInvoke[*indicator.Indicator](i),
				Stats:     do.MustInvoke[*pipeline.Worker](i),
				Metrics:   do.MustInvoke[*observe.Metrics](i),
				Quit:      quit,
				Logger:    component(i, "session"),
			},
		), nil
	})
}

func component(i do.Injector, name string) *slog.Logger {
	return do.MustInvoke[*slog.Logger](i).With("component", name)
}

func recorderConfig(cfg config.Config) audio.RecorderConfig {
	detector := audio.NewDetectorConfig(
		cfg.Segment.SilenceThreshold,
		cfg.Segment.MinDuration,
		cfg.Segment.SilenceDuration,
		cfg.Audio.SampleRate,
		cfg.Audio.FrameSize,
	)
	if !cfg.Segment.Enable {
		detector.MinSegmentFrames = math.MaxInt
	}
	return audio.RecorderConfig{
		SampleRate: cfg.Audio.SampleRate,
		FrameSize:  cfg.Audio.FrameSize,
		PreRoll:    cfg.Audio.PreRoll,
		Detector:   detector,
	}
}

func historyPath(cfg config.HistoryConfig) (string, error) {
	if cfg.Path != "" {
		return config.ExpandHome(cfg.Path), nil
	}
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}
