package config

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse overlays YAML content on base and validates the result.
//
// Keys absent from content keep their base value. Unknown keys are rejected.
func Parse(content string, base Config) (Config, []Warning, error) {
	cfg := cloneConfig(base)
	if strings.TrimSpace(content) != "" {
		dec := yaml.NewDecoder(strings.NewReader(content))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, nil, fmt.Errorf("decode yaml: %w", err)
		}
	}
	normalize(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

// UnmarshalYAML accepts a shell-like command string.
func (c *CommandConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return fmt.Errorf("line %d: command must be a string", node.Line)
	}
	cmd, err := ParseCommand(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = cmd
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.LLM.Profiles = maps.Clone(cfg.LLM.Profiles)
	if out.LLM.Profiles == nil {
		out.LLM.Profiles = map[string]Profile{}
	}
	out.LLM.AutoMatch = append([]AutoMatchRule(nil), cfg.LLM.AutoMatch...)
	out.Vocab.Sets = maps.Clone(cfg.Vocab.Sets)
	if out.Vocab.Sets == nil {
		out.Vocab.Sets = map[string]VocabSet{}
	}
	out.Vocab.GlobalSets = append([]string(nil), cfg.Vocab.GlobalSets...)
	out.Foreground.TerminalClasses = append([]string(nil), cfg.Foreground.TerminalClasses...)
	return out
}

func normalize(cfg *Config) {
	lower := func(s *string) { *s = strings.ToLower(strings.TrimSpace(*s)) }
	lower(&cfg.Hotkey.Backend)
	lower(&cfg.Audio.Backend)
	lower(&cfg.STT.Engine)
	lower(&cfg.Output.Keys)
	lower(&cfg.Foreground.Backend)
	lower(&cfg.Indicator.Backend)
	lower(&cfg.Log.Level)

	for name, set := range cfg.Vocab.Sets {
		set.Name = name
		cfg.Vocab.Sets[name] = set
	}
	for i, class := range cfg.Foreground.TerminalClasses {
		cfg.Foreground.TerminalClasses[i] = strings.ToLower(strings.TrimSpace(class))
	}
}
