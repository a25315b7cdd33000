// Package cli parses parla's command line.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandPress   Command = "press"
	CommandRelease Command = "release"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandQuit    Command = "quit"
	CommandDevices Command = "devices"
	CommandHistory Command = "history"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandPress:   {},
	CommandRelease: {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandQuit:    {},
	CommandDevices: {},
	CommandHistory: {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// DefaultHistoryLimit is the number of entries `history` prints without --limit.
const DefaultHistoryLimit = 20

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Verbose    bool
	// Mode is the optional press argument: dictation or command.
	Mode  string
	Limit int
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true, Limit: DefaultHistoryLimit}
	seenCommand := false

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "-v", "--verbose":
			parsed.Verbose = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		case "--limit":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--limit requires a number")
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 {
				return Parsed{}, fmt.Errorf("--limit must be a non-negative integer: %q", args[i])
			}
			parsed.Limit = n
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			if seenCommand {
				if parsed.Command == CommandPress && parsed.Mode == "" {
					parsed.Mode = arg
					continue
				}
				return Parsed{}, fmt.Errorf("unexpected argument %q after command %q", arg, parsed.Command)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}
			seenCommand = true
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
		}
	}

	if parsed.Mode != "" && parsed.Mode != "dictation" && parsed.Mode != "command" {
		return Parsed{}, fmt.Errorf("press mode must be dictation or command: %q", parsed.Mode)
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--verbose] <command>

Commands:
  run                  Start the dictation daemon
  press [MODE]         Start recording in the daemon (MODE: dictation|command)
  release              Stop recording and queue the final audio
  cancel               Stop recording and drop the unqueued tail
  status               Print daemon state, backlog and counters
  quit                 Drain the queue and stop the daemon
  devices              List available input devices
  history [--limit N]  Print recent transcriptions, newest first
  doctor               Run configuration and environment checks
  version              Print version information
  help                 Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/parla/config.yaml)
  -v, --verbose   Debug logging, mirrored to stderr
  --limit N       Number of history entries (default %[2]d, 0 for all)
  -h, --help      Show help
  --version       Show version
`, binaryName, DefaultHistoryLimit)
}
