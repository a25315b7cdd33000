package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

const (
	defaultDictionaryThreshold = 0.92
	// Shorter words match too many ordinary words to fuzzy-snap safely.
	minFuzzyRunes = 4
)

type dictEntry struct {
	phrase string
	lower  string
	codes  map[string]struct{}
}

// Corrector snaps words and short phrases to dictionary spellings. A candidate
// must share a Double Metaphone code with the entry and reach the
// Jaro-Winkler threshold; case-insensitive exact matches always snap.
type Corrector struct {
	threshold float64
	byWords   map[int][]dictEntry
	maxWords  int
}

// NewCorrector indexes phrases by word count. threshold <= 0 uses 0.92.
func NewCorrector(phrases []string, threshold float64) *Corrector {
	if threshold <= 0 {
		threshold = defaultDictionaryThreshold
	}
	c := &Corrector{threshold: threshold, byWords: make(map[int][]dictEntry)}
	for _, phrase := range phrases {
		phrase = Normalize(phrase)
		if phrase == "" {
			continue
		}
		lower := strings.ToLower(phrase)
		words := strings.Fields(lower)
		c.byWords[len(words)] = append(c.byWords[len(words)], dictEntry{
			phrase: phrase,
			lower:  lower,
			codes:  metaphoneCodes(words),
		})
		c.maxWords = max(c.maxWords, len(words))
	}
	return c
}

// Correct rewrites whitespace-separated text, preferring the longest phrase
// match at each position. Punctuation around a match is preserved.
func (c *Corrector) Correct(text string) string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 || c.maxWords == 0 {
		return text
	}

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		n, replacement := c.matchAt(tokens[i:])
		if n == 0 {
			out = append(out, tokens[i])
			i++
			continue
		}
		out = append(out, replacement)
		i += n
	}
	return strings.Join(out, " ")
}

func (c *Corrector) matchAt(tokens []string) (int, string) {
	for n := min(c.maxWords, len(tokens)); n >= 1; n-- {
		entries := c.byWords[n]
		if len(entries) == 0 {
			continue
		}
		lead, core, trail, ok := splitWindow(tokens[:n])
		if !ok {
			continue
		}
		if phrase, matched := c.best(core, entries); matched {
			return n, lead + phrase + trail
		}
	}
	return 0, ""
}

func (c *Corrector) best(core string, entries []dictEntry) (string, bool) {
	lower := strings.ToLower(core)
	for _, e := range entries {
		if e.lower == lower {
			return e.phrase, true
		}
	}
	if utf8.RuneCountInString(lower) < minFuzzyRunes {
		return "", false
	}

	codes := metaphoneCodes(strings.Fields(lower))
	bestScore := 0.0
	bestPhrase := ""
	for _, e := range entries {
		if !overlaps(codes, e.codes) {
			continue
		}
		if score := matchr.JaroWinkler(lower, e.lower, false); score >= c.threshold && score > bestScore {
			bestScore = score
			bestPhrase = e.phrase
		}
	}
	return bestPhrase, bestPhrase != ""
}

// splitWindow peels punctuation off the window's outer edges. Windows with
// punctuation between their words are rejected so matches never cross clauses.
func splitWindow(window []string) (lead, core, trail string, ok bool) {
	words := make([]string, len(window))
	for i, token := range window {
		start := strings.IndexFunc(token, isWordRune)
		end := strings.LastIndexFunc(token, isWordRune)
		if start < 0 {
			return "", "", "", false
		}
		_, size := utf8.DecodeRuneInString(token[end:])
		end += size
		if (i > 0 && start > 0) || (i < len(window)-1 && end < len(token)) {
			return "", "", "", false
		}
		if i == 0 {
			lead = token[:start]
		}
		if i == len(window)-1 {
			trail = token[end:]
		}
		words[i] = token[start:end]
	}
	return lead, strings.Join(words, " "), trail, true
}

func isWordRune(r rune) bool {
	return !unicode.IsPunct(r) && !unicode.IsSymbol(r)
}

func metaphoneCodes(words []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(words)*2)
	for _, w := range words {
		primary, secondary := matchr.DoubleMetaphone(w)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func overlaps(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
