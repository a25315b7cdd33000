package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/fsm"
	"github.com/rbright/parla/internal/history"
	"github.com/rbright/parla/internal/hotkey"
	"github.com/rbright/parla/internal/indicator"
	"github.com/rbright/parla/internal/ipc"
	"github.com/rbright/parla/internal/observe"
	"github.com/rbright/parla/internal/pipeline"
	"github.com/rbright/parla/internal/session"
	"github.com/rbright/parla/internal/stt"
)

const (
	probeTimeout      = 180 * time.Millisecond
	acquireRetries    = 8
	captureRetryDelay = time.Second
	drainTimeout      = 2 * time.Minute
)

func (r Runner) commandRun(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, probeTimeout, acquireRetries)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	front, stopFront := context.WithCancel(ctx)
	defer stopFront()

	d, err := resolveDaemon(setupDI(ctx, cfg, logger, quitFunc(stopFront)))
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon setup failed", "error", err)
		return 1
	}
	defer d.close()

	logger.Info("daemon started",
		"socket", socketPath,
		"engine", cfg.STT.Engine,
		"hotkey_backend", cfg.Hotkey.Backend,
		"indicator", cfg.Indicator.Backend,
	)
	if err := d.run(front, stopFront, listener); err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("daemon failed", "error", err)
		return 1
	}
	logger.Info("daemon stopped")
	return 0
}

// daemon is the resolved runtime graph of one `parla run`.
type daemon struct {
	cfg        config.Config
	logger     *slog.Logger
	queue      *unitQueue
	provider   *observe.Provider
	metrics    *observe.Metrics
	stt        *stt.Service
	store      *history.Store
	recorder   *audio.Recorder
	worker     *pipeline.Worker
	controller *session.Controller
	indicator  *indicator.Indicator
}

// resolveDaemon invokes the graph. On failure everything resolved so far is closed.
func resolveDaemon(injector do.Injector) (d *daemon, err error) {
	d = &daemon{
		cfg:    do.MustInvoke[config.Config](injector),
		logger: do.MustInvoke[*slog.Logger](injector),
	}
	defer func() {
		if err != nil {
			d.close()
			d = nil
		}
	}()

	if d.stt, err = do.Invoke[*stt.Service](injector); err != nil {
		return d, fmt.Errorf("speech engine: %w", err)
	}
	if d.store, err = do.Invoke[*history.Store](injector); err != nil {
		return d, fmt.Errorf("history: %w", err)
	}
	if d.provider, err = do.Invoke[*observe.Provider](injector); err != nil {
		return d, fmt.Errorf("metrics: %w", err)
	}
	if d.metrics, err = do.Invoke[*observe.Metrics](injector); err != nil {
		return d, fmt.Errorf("metrics: %w", err)
	}
	if d.recorder, err = do.Invoke[*audio.Recorder](injector); err != nil {
		return d, err
	}
	if d.controller, err = do.Invoke[*session.Controller](injector); err != nil {
		return d, err
	}
	if d.worker, err = do.Invoke[*pipeline.Worker](injector); err != nil {
		return d, err
	}
	if d.queue, err = do.Invoke[*unitQueue](injector); err != nil {
		return d, err
	}
	if d.indicator, err = do.Invoke[*indicator.Indicator](injector); err != nil {
		return d, err
	}
	return d, nil
}

// run serves IPC, capture, hotkeys, and metrics until front is done, then
// drains the queue.
func (d *daemon) run(front context.Context, stopFront func(), listener net.Listener) error {
	var keys *hotkey.Listener
	if d.cfg.Hotkey.Backend != "ipc" {
		var err error
		if keys, err = hotkey.New(d.cfg.Hotkey, d.controller, d.logger.With("component", "hotkey")); err != nil {
			return err
		}
	}

	if reg, err := d.metrics.ObserveBacklog(d.queue.Len); err != nil {
		d.logger.Warn("backlog gauge unavailable", "error", err)
	} else {
		defer func() { _ = reg.Unregister() }()
	}
	d.stt.ObserveRetries(func(engine string) {
		d.metrics.RecordRetry(context.Background(), engine)
	})

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- d.worker.Run(context.WithoutCancel(front))
	}()

	stopTray := d.indicator.RunTray(stopFront)
	defer stopTray()

	g, gctx := errgroup.WithContext(front)
	g.Go(func() error {
		return ipc.Serve(gctx, listener, historyHandler(d.controller, d.store))
	})
	g.Go(func() error {
		return d.capture(gctx)
	})
	if keys != nil {
		g.Go(func() error {
			return keys.Run(gctx)
		})
	}
	if addr := strings.TrimSpace(d.cfg.Metrics.Listen); addr != "" {
		g.Go(func() error {
			return d.provider.Serve(gctx, addr, d.logger)
		})
	}

	err := g.Wait()
	d.drain(workerDone)
	return err
}

// capture keeps an audio source feeding the recorder, reopening it after
// device failures. A failure mid-recording ends the session with what was buffered.
func (d *daemon) capture(ctx context.Context) error {
	cfg := audio.SourceConfig{
		Backend:    d.cfg.Audio.Backend,
		Input:      d.cfg.Audio.Input,
		Fallback:   d.cfg.Audio.Fallback,
		SampleRate: d.cfg.Audio.SampleRate,
		FrameSize:  d.cfg.Audio.FrameSize,
	}
	for {
		source, err := audio.NewSource(ctx, cfg, d.logger)
		if err == nil {
			d.logger.Info("audio capture started", "source", source.Name())
			err = source.Run(ctx, d.recorder.Write)
		}
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("audio source stopped")
		}
		d.controller.Abort(ctx, err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(captureRetryDelay):
		}
	}
}

// drain finalizes an active recording, posts the queue sentinel, and waits for
// the worker to finish what is queued.
func (d *daemon) drain(workerDone <-chan error) {
	ctx := context.Background()
	if d.controller.State() == fsm.StateRecording {
		if err := d.controller.Release(ctx); err != nil {
			d.logger.Warn("release on shutdown", "error", err)
		}
	}
	d.queue.Shutdown()

	backlog := d.queue.Len()
	if backlog > 0 {
		d.logger.Info("draining queue", "backlog", backlog)
	}
	select {
	case err := <-workerDone:
		if err != nil {
			d.logger.Warn("worker stopped", "error", err)
		}
	case <-time.After(drainTimeout):
		d.logger.Error("queue drain timed out", "backlog", d.queue.Len())
	}
}

func (d *daemon) close() {
	if d.recorder != nil {
		d.recorder.Close()
	}
	if d.stt != nil {
		if err := d.stt.Close(); err != nil {
			d.logger.Warn("close speech engine", "error", err)
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("close history", "error", err)
		}
	}
	if d.provider != nil {
		if err := d.provider.Shutdown(context.Background()); err != nil {
			d.logger.Warn("close metrics", "error", err)
		}
	}
}

// historyHandler answers history requests from store and passes every other
// command to next.
func historyHandler(next ipc.Handler, store *history.Store) ipc.HandlerFunc {
	return func(ctx context.Context, req ipc.Request) ipc.Response {
		if req.Command != ipc.CommandHistory {
			return next.Handle(ctx, req)
		}

		resp := next.Handle(ctx, ipc.Request{Command: ipc.CommandStatus})
		resp.Message = ""
		if store == nil {
			resp.OK = false
			resp.Error = "history is disabled"
			return resp
		}

		entries, err := store.List(ctx, req.Limit)
		if err == nil {
			resp.History, err = json.Marshal(entries)
		}
		if err != nil {
			resp.OK = false
			resp.Error = err.Error()
			return resp
		}
		return resp
	}
}
