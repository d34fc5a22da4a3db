package fts

import (
	"fmt"
	"sort"
	"sync"
)

// TokenizerManager is a per-index registry of named tokenizers.
// Schema text fields refer to tokenizers by name.
type TokenizerManager struct {
	mu         sync.RWMutex
	tokenizers map[string]Tokenizer
}

// NewTokenizerManager returns a registry pre-populated with "raw", "default",
// "en_stem" and "whitespace".
func NewTokenizerManager() *TokenizerManager {
	m := &TokenizerManager{tokenizers: make(map[string]Tokenizer)}

	m.Register("raw", NewTokenizer(&Config{Tokenizer: "raw"}))
	m.Register("default", NewTokenizer(DefaultConfig()))
	m.Register("en_stem", NewTokenizer(&Config{
		Tokenizer:      "simple",
		Language:       "english",
		Stemming:       true,
		MaxTokenLength: 40,
	}))
	m.Register("whitespace", NewTokenizer(&Config{Tokenizer: "whitespace"}))

	return m
}

// Register adds or replaces a tokenizer.
func (m *TokenizerManager) Register(name string, t Tokenizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenizers[name] = t
}

// RegisterConfig validates cfg and registers the resulting tokenizer.
func (m *TokenizerManager) RegisterConfig(name string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("tokenizer %q: %w", name, err)
	}
	m.Register(name, NewTokenizer(cfg))
	return nil
}

// Get returns the tokenizer registered under name.
func (m *TokenizerManager) Get(name string) (Tokenizer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokenizers[name]
	return t, ok
}

// Names returns the registered tokenizer names, sorted.
func (m *TokenizerManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.tokenizers))
	for name := range m.tokenizers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
