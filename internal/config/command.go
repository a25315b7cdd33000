package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseCommand splits a shell-like command line into argv. Single and double
// quotes group words, a backslash escapes the next rune, and an unquoted "#"
// starting a word begins a comment. A leading "~/" in the program is expanded.
// No variable or glob expansion is done; argv is executed directly.
func ParseCommand(raw string) (CommandConfig, error) {
	raw = strings.TrimSpace(raw)
	cmd := CommandConfig{Raw: raw}

	var (
		word    strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	emit := func() {
		if inWord {
			cmd.Argv = append(cmd.Argv, word.String())
		}
		word.Reset()
		inWord = false
	}

scan:
	for _, r := range raw {
		switch {
		case escaped:
			word.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				word.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			emit()
		case r == '#' && !inWord:
			break scan
		default:
			word.WriteRune(r)
			inWord = true
		}
	}

	switch {
	case escaped:
		return CommandConfig{}, fmt.Errorf("command %q ends with a bare backslash", raw)
	case quote != 0:
		return CommandConfig{}, fmt.Errorf("unterminated quote (%c) in command %q", quote, raw)
	}
	emit()

	if len(cmd.Argv) > 0 {
		cmd.Argv[0] = ExpandHome(cmd.Argv[0])
	}
	return cmd, nil
}

// MustCommand is ParseCommand for built-in defaults.
func MustCommand(raw string) CommandConfig {
	cmd, err := ParseCommand(raw)
	if err != nil {
		panic(err)
	}
	return cmd
}
