// Package fts provides text analysis: tokenizer configuration, tokenizers
// and the in-memory inverted index built for each indexed text field.
package fts

import (
	"fmt"
)

// Config describes a text analysis pipeline.
type Config struct {
	// Tokenizer is the base tokenizer: "raw", "simple", "whitespace" or "ngram".
	Tokenizer string `json:"tokenizer"`

	CaseSensitive   bool   `json:"case_sensitive"`
	ASCIIFolding    bool   `json:"ascii_folding"`
	Stemming        bool   `json:"stemming"`
	Language        string `json:"language,omitempty"`
	RemoveStopwords bool   `json:"remove_stopwords"`

	// MaxTokenLength drops tokens longer than this many bytes. 0 keeps all tokens.
	MaxTokenLength int `json:"max_token_length,omitempty"`

	// N-gram options, only used by the "ngram" tokenizer.
	MinGram    int  `json:"min_gram,omitempty"`
	MaxGram    int  `json:"max_gram,omitempty"`
	PrefixOnly bool `json:"prefix_only,omitempty"`
}

// SupportedTokenizers lists the base tokenizers.
var SupportedTokenizers = map[string]bool{
	"raw":        true, // whole value as one token
	"simple":     true, // split on non alphanumeric characters
	"whitespace": true, // split on whitespace only
	"ngram":      true, // overlapping character n-grams
}

// SupportedLanguages lists the languages the snowball stemmer handles.
var SupportedLanguages = map[string]bool{
	"english": true,
	"spanish": true,
	"french":  true,
	"russian": true,
	"swedish": true,
}

// DefaultConfig returns the "default" pipeline: simple tokenizer, long token
// removal and lowercasing.
func DefaultConfig() *Config {
	return &Config{
		Tokenizer:      "simple",
		Language:       "english",
		MaxTokenLength: 40,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Tokenizer == "" {
		return fmt.Errorf("tokenizer cannot be empty")
	}
	if !SupportedTokenizers[c.Tokenizer] {
		return fmt.Errorf("unsupported tokenizer: %q", c.Tokenizer)
	}
	if c.Stemming {
		if c.Language == "" {
			return fmt.Errorf("language is required when stemming is enabled")
		}
		if !SupportedLanguages[c.Language] {
			return fmt.Errorf("unsupported language: %q", c.Language)
		}
	}
	if c.MaxTokenLength < 0 {
		return fmt.Errorf("max_token_length must be non-negative, got %d", c.MaxTokenLength)
	}
	if c.Tokenizer == "ngram" {
		if c.MinGram < 1 {
			return fmt.Errorf("min_gram must be at least 1, got %d", c.MinGram)
		}
		if c.MaxGram < c.MinGram {
			return fmt.Errorf("max_gram (%d) must be >= min_gram (%d)", c.MaxGram, c.MinGram)
		}
	}
	return nil
}

// Clone creates a copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// Equal checks if two configs are equal.
func (c *Config) Equal(other *Config) bool {
	if c == nil && other == nil {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	return *c == *other
}
