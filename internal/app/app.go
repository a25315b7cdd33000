package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/cli"
	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/doctor"
	"github.com/rbright/parla/internal/history"
	"github.com/rbright/parla/internal/ipc"
	"github.com/rbright/parla/internal/logging"
	"github.com/rbright/parla/internal/version"
)

const (
	binaryName     = "parla"
	forwardTimeout = 1500 * time.Millisecond
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText(binaryName))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText(binaryName))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	opts := logging.Options{Verbose: parsed.Verbose}
	if parsed.Command == cli.CommandRun && parsed.Verbose {
		opts.Stderr = r.Stderr
	}
	logRuntime, err := logging.New(cfgLoaded.Config.Log, opts)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		if cfgLoaded.Exists {
			fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		}
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Debug("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandRun:
		return r.commandRun(ctx, cfgLoaded.Config, logger)
	case cli.CommandDoctor:
		report := doctor.Run(ctx, cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandHistory:
		return r.commandHistory(ctx, cfgLoaded.Config, parsed.Limit, logger)
	case cli.CommandPress:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandPress, Mode: parsed.Mode})
	case cli.CommandRelease:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandRelease})
	case cli.CommandCancel:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandCancel})
	case cli.CommandQuit:
		return r.forwardOrFail(ctx, ipc.Request{Command: ipc.CommandQuit})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := audio.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			yesNo(device.Available),
			yesNo(device.Muted),
		)
	}
	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	resp, err := forward(ctx, ipc.Request{Command: ipc.CommandStatus})
	if errors.Is(err, ipc.ErrNotRunning) {
		fmt.Fprintln(r.Stdout, "stopped")
		return 0
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	state := resp.State
	if state == "" {
		state = "idle"
	}
	fmt.Fprintf(r.Stdout, "%s backlog=%d processed=%d failed=%d\n", state, resp.Backlog, resp.Processed, resp.Failed)
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	resp, err := forward(ctx, req)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	return 0
}

// commandHistory asks the daemon first since it holds the store lock, and
// opens the store directly when no daemon is running.
func (r Runner) commandHistory(ctx context.Context, cfg config.Config, limit int, logger *slog.Logger) int {
	if !cfg.History.Enable {
		fmt.Fprintln(r.Stderr, "error: history is disabled (history.enable=false)")
		return 1
	}

	var entries []history.Entry
	resp, err := forward(ctx, ipc.Request{Command: ipc.CommandHistory, Limit: limit})
	switch {
	case err == nil:
		if err := json.Unmarshal(resp.History, &entries); err != nil {
			fmt.Fprintf(r.Stderr, "error: decode history: %v\n", err)
			return 1
		}
	case errors.Is(err, ipc.ErrNotRunning):
		entries, err = readHistory(ctx, cfg.History, limit, logger)
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	printHistory(r.Stdout, entries)
	return 0
}

func readHistory(ctx context.Context, cfg config.HistoryConfig, limit int, logger *slog.Logger) ([]history.Entry, error) {
	path, err := historyPath(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	store, err := history.Open(history.Options{Path: path, Retention: cfg.Retention, Logger: logger})
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.List(ctx, limit)
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no history")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODE\tOUTCOME\tAUDIO\tTEXT")
	for _, e := range entries {
		text := e.Output
		if text == "" {
			text = e.Transcript
		}
		if e.Error != "" {
			text = "error: " + e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.1fs\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Mode,
			e.Outcome,
			float64(e.AudioMillis)/1000,
			oneLine(text),
		)
	}
	_ = tw.Flush()
}

func oneLine(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	const width = 80
	if runes := []rune(text); len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return text
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// forward sends req to the running daemon. Errors are ipc.ErrNotRunning, an
// *ipc.RemoteError carrying the daemon's refusal, or a transport failure.
func forward(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		return ipc.Response{}, err
	}

	resp, err := ipc.Call(ctx, socketPath, req, forwardTimeout)
	var remote *ipc.RemoteError
	if err != nil && !errors.Is(err, ipc.ErrNotRunning) && !errors.As(err, &remote) {
		return resp, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
	return resp, err
}
