package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultsToHelp(t *testing.T) {
	parsed, err := Parse(nil)
	require.NoError(t, err)
	require.True(t, parsed.ShowHelp)
	require.Equal(t, CommandHelp, parsed.Command)
	require.Equal(t, DefaultHistoryLimit, parsed.Limit)
}

func TestParseCommandWithConfig(t *testing.T) {
	parsed, err := Parse([]string{"--config", "/tmp/parla.yaml", "doctor"})
	require.NoError(t, err)
	require.Equal(t, CommandDoctor, parsed.Command)
	require.Equal(t, "/tmp/parla.yaml", parsed.ConfigPath)
	require.False(t, parsed.ShowHelp)
}

func TestParseArgMatrix(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantErr     string
		wantCmd     Command
		wantHelp    bool
		wantPath    string
		wantMode    string
		wantLimit   int
		wantVerbose bool
	}{
		{name: "help short flag", args: []string{"-h"}, wantCmd: CommandHelp, wantHelp: true, wantLimit: DefaultHistoryLimit},
		{name: "help long flag", args: []string{"--help"}, wantCmd: CommandHelp, wantHelp: true, wantLimit: DefaultHistoryLimit},
		{name: "version flag", args: []string{"--version"}, wantCmd: CommandVersion, wantLimit: DefaultHistoryLimit},
		{name: "run verbose", args: []string{"run", "--verbose"}, wantCmd: CommandRun, wantVerbose: true, wantLimit: DefaultHistoryLimit},
		{name: "config after command", args: []string{"status", "--config", "/tmp/cfg"}, wantCmd: CommandStatus, wantPath: "/tmp/cfg", wantLimit: DefaultHistoryLimit},
		{name: "press default mode", args: []string{"press"}, wantCmd: CommandPress, wantLimit: DefaultHistoryLimit},
		{name: "press command mode", args: []string{"press", "command"}, wantCmd: CommandPress, wantMode: "command", wantLimit: DefaultHistoryLimit},
		{name: "press bad mode", args: []string{"press", "shout"}, wantErr: "press mode must be"},
		{name: "press two modes", args: []string{"press", "command", "dictation"}, wantErr: "unexpected argument"},
		{name: "history limit", args: []string{"history", "--limit", "5"}, wantCmd: CommandHistory, wantLimit: 5},
		{name: "history bad limit", args: []string{"history", "--limit", "-1"}, wantErr: "non-negative"},
		{name: "missing limit", args: []string{"history", "--limit"}, wantErr: "requires a number"},
		{name: "missing config path", args: []string{"--config"}, wantErr: "requires a path"},
		{name: "unknown flag", args: []string{"--bogus"}, wantErr: "unknown flag"},
		{name: "unknown command", args: []string{"toggle"}, wantErr: "unknown command"},
		{name: "extra positional", args: []string{"status", "now"}, wantErr: "unexpected argument"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := Parse(tc.args)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantCmd, parsed.Command)
			require.Equal(t, tc.wantHelp, parsed.ShowHelp)
			require.Equal(t, tc.wantPath, parsed.ConfigPath)
			require.Equal(t, tc.wantMode, parsed.Mode)
			require.Equal(t, tc.wantLimit, parsed.Limit)
			require.Equal(t, tc.wantVerbose, parsed.Verbose)
		})
	}
}

func TestHelpTextListsCommands(t *testing.T) {
	text := HelpText("parla")
	for _, cmd := range []string{"run", "press", "release", "status", "history", "doctor", "devices"} {
		require.Contains(t, text, cmd)
	}
	require.Contains(t, text, "parla/config.yaml")
}
