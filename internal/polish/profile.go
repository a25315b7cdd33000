package polish

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rbright/parla/internal/config"
)

// GeneralProfile names the built-in fallback that uses llm.prompt.
const GeneralProfile = "general"

// Profile is a resolved prompt.
type Profile struct {
	Name   string
	Prompt string
}

type matchRule struct {
	pattern *regexp.Regexp
	profile string
}

// Profiles resolves the prompt for one unit from its window title and mode.
type Profiles struct {
	prompts        map[string]string
	rules          []matchRule
	defaultProfile string
	commandProfile string
	fallback       string
}

// NewProfiles compiles llm.auto_match patterns case-insensitively.
func NewProfiles(cfg config.LLMConfig) (*Profiles, error) {
	p := &Profiles{
		prompts:        make(map[string]string, len(cfg.Profiles)),
		defaultProfile: cfg.DefaultProfile,
		commandProfile: cfg.CommandProfile,
		fallback:       cfg.Prompt,
	}
	for name, profile := range cfg.Profiles {
		p.prompts[name] = profile.Prompt
	}
	for i, rule := range cfg.AutoMatch {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("llm.auto_match[%d]: %w", i, err)
		}
		p.rules = append(p.rules, matchRule{pattern: re, profile: rule.Profile})
	}
	return p, nil
}

// Resolve picks, in order: the command profile for command mode, the first
// auto_match rule whose pattern matches title and whose profile exists, the
// default profile, then the built-in general prompt.
func (p *Profiles) Resolve(title string, command bool) Profile {
	if command {
		if prompt, ok := p.prompts[p.commandProfile]; ok {
			return Profile{Name: p.commandProfile, Prompt: prompt}
		}
	}

	if strings.TrimSpace(title) != "" {
		for _, rule := range p.rules {
			if !rule.pattern.MatchString(title) {
				continue
			}
			if prompt, ok := p.prompts[rule.profile]; ok {
				return Profile{Name: rule.profile, Prompt: prompt}
			}
		}
	}

	if prompt, ok := p.prompts[p.defaultProfile]; ok {
		return Profile{Name: p.defaultProfile, Prompt: prompt}
	}
	return Profile{Name: GeneralProfile, Prompt: p.fallback}
}
