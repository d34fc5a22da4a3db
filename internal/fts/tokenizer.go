package fts

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

// Tokenizer defines the interface for text tokenization.
// The position of a token is its index in the returned slice.
type Tokenizer interface {
	Tokenize(text string) []string
}

// NewTokenizer builds a tokenizer pipeline from the config.
// The config must be valid.
func NewTokenizer(cfg *Config) Tokenizer {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var base Tokenizer
	switch cfg.Tokenizer {
	case "raw":
		return rawTokenizer{}
	case "whitespace":
		base = &whitespaceTokenizer{caseSensitive: cfg.CaseSensitive}
	case "ngram":
		return &ngramTokenizer{
			minGram:       cfg.MinGram,
			maxGram:       cfg.MaxGram,
			prefixOnly:    cfg.PrefixOnly,
			caseSensitive: cfg.CaseSensitive,
		}
	default:
		base = &simpleTokenizer{
			caseSensitive: cfg.CaseSensitive,
			asciiFolding:  cfg.ASCIIFolding,
		}
	}

	if cfg.MaxTokenLength == 0 && !cfg.RemoveStopwords && !cfg.Stemming {
		return base
	}
	return &filteredTokenizer{
		base:            base,
		maxTokenLength:  cfg.MaxTokenLength,
		removeStopwords: cfg.RemoveStopwords,
		stemming:        cfg.Stemming,
		language:        cfg.Language,
	}
}

// rawTokenizer emits the whole value as a single token.
type rawTokenizer struct{}

func (rawTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	return []string{text}
}

// simpleTokenizer splits on every character that is not a letter or a digit.
type simpleTokenizer struct {
	caseSensitive bool
	asciiFolding  bool
}

func (t *simpleTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	if t.asciiFolding {
		text = foldASCII(text)
	}

	if !t.caseSensitive {
		text = strings.ToLower(text)
	}

	var tokens []string
	var current strings.Builder

	for _, r := range text {
		if isWordChar(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// whitespaceTokenizer splits on whitespace only.
type whitespaceTokenizer struct {
	caseSensitive bool
}

func (t *whitespaceTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	if !t.caseSensitive {
		text = strings.ToLower(text)
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ngramTokenizer produces every n-gram of length minGram..maxGram, grouped by
// start offset. Whitespace is kept, so grams may span words.
type ngramTokenizer struct {
	minGram       int
	maxGram       int
	prefixOnly    bool
	caseSensitive bool
}

func (t *ngramTokenizer) Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	if !t.caseSensitive {
		text = strings.ToLower(text)
	}

	runes := []rune(text)
	var tokens []string
	for start := 0; start < len(runes); start++ {
		if t.prefixOnly && start > 0 {
			break
		}
		for n := t.minGram; n <= t.maxGram; n++ {
			end := start + n
			if end > len(runes) {
				break
			}
			tokens = append(tokens, string(runes[start:end]))
		}
	}
	return tokens
}

// filteredTokenizer applies token filters after a base tokenizer.
type filteredTokenizer struct {
	base            Tokenizer
	maxTokenLength  int
	removeStopwords bool
	stemming        bool
	language        string
}

func (t *filteredTokenizer) Tokenize(text string) []string {
	tokens := t.base.Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	out := tokens[:0]
	for _, token := range tokens {
		if t.maxTokenLength > 0 && len(token) > t.maxTokenLength {
			continue
		}
		if t.removeStopwords && IsStopword(token) {
			continue
		}
		if t.stemming {
			if stemmed, err := snowball.Stem(token, t.language, true); err == nil && stemmed != "" {
				token = stemmed
			}
		}
		out = append(out, token)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// foldASCII converts common Unicode characters to ASCII equivalents.
func foldASCII(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		if r < 128 {
			result.WriteRune(r)
			continue
		}
		switch r {
		case 'à', 'á', 'â', 'ã', 'ä', 'å', 'æ':
			result.WriteRune('a')
		case 'ç':
			result.WriteRune('c')
		case 'è', 'é', 'ê', 'ë':
			result.WriteRune('e')
		case 'ì', 'í', 'î', 'ï':
			result.WriteRune('i')
		case 'ñ':
			result.WriteRune('n')
		case 'ò', 'ó', 'ô', 'õ', 'ö', 'ø':
			result.WriteRune('o')
		case 'ù', 'ú', 'û', 'ü':
			result.WriteRune('u')
		case 'ý', 'ÿ':
			result.WriteRune('y')
		case 'ß':
			result.WriteString("ss")
		case 'À', 'Á', 'Â', 'Ã', 'Ä', 'Å', 'Æ':
			result.WriteRune('A')
		case 'Ç':
			result.WriteRune('C')
		case 'È', 'É', 'Ê', 'Ë':
			result.WriteRune('E')
		case 'Ì', 'Í', 'Î', 'Ï':
			result.WriteRune('I')
		case 'Ñ':
			result.WriteRune('N')
		case 'Ò', 'Ó', 'Ô', 'Õ', 'Ö', 'Ø':
			result.WriteRune('O')
		case 'Ù', 'Ú', 'Û', 'Ü':
			result.WriteRune('U')
		case 'Ý':
			result.WriteRune('Y')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}

// English stopwords
var englishStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "but": true, "by": true, "for": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"no": true, "not": true, "of": true, "on": true, "or": true,
	"such": true, "that": true, "the": true, "their": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "to": true,
	"was": true, "will": true, "with": true,
}

// IsStopword returns true if the token is a common English stopword.
func IsStopword(token string) bool {
	return englishStopwords[strings.ToLower(token)]
}
