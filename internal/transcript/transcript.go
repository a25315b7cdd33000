// Package transcript post-processes recognized text before it is polished or typed.
package transcript

import (
	"strings"
	"unicode"
)

// Options controls which transforms Process applies.
type Options struct {
	// FullwidthPunctuation maps ASCII ,.?!:;() to their CJK full-width forms.
	FullwidthPunctuation bool
	// Dictionary phrases snap near-miss words to their canonical spelling.
	Dictionary          []string
	DictionaryThreshold float64
}

// Processor applies whitespace normalization, dictionary snapping and
// punctuation mapping, in that order. It is safe for concurrent use.
type Processor struct {
	fullwidth bool
	corrector *Corrector
}

// NewProcessor builds a processor from opts.
func NewProcessor(opts Options) *Processor {
	p := &Processor{fullwidth: opts.FullwidthPunctuation}
	if len(opts.Dictionary) > 0 {
		p.corrector = NewCorrector(opts.Dictionary, opts.DictionaryThreshold)
	}
	return p
}

// Process returns the cleaned text. Empty or whitespace-only input yields "".
func (p *Processor) Process(text string) string {
	normalized := Normalize(text)
	if normalized == "" {
		return ""
	}
	if p.corrector != nil {
		normalized = p.corrector.Correct(normalized)
	}
	if p.fullwidth {
		normalized = Fullwidth(normalized)
	}
	return normalized
}

// Normalize collapses whitespace runs to single spaces and trims the ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

var fullwidth = map[rune]rune{
	',': '，',
	'.': '。',
	'?': '？',
	'!': '！',
	':': '：',
	';': '；',
	'(': '（',
	')': '）',
}

// Fullwidth maps ASCII punctuation to full-width forms. Separators inside
// numbers ("3.14", "1,000", "10:30") are left alone.
func Fullwidth(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i, r := range runes {
		mapped, ok := fullwidth[r]
		if !ok || (r != '(' && r != ')' && r != '?' && r != '!' && betweenDigits(runes, i)) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(mapped)
	}
	return b.String()
}

func betweenDigits(runes []rune, i int) bool {
	return i > 0 && i < len(runes)-1 && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1])
}
