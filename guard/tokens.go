package guard

import (
	"sort"
	"sync"

	"go.uber.org/atomic"
)

// TokenSet is the set of tokens a proxy may present. Tokens are only ever
// added.
type TokenSet struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
	// seeded is set once the set holds a token and never cleared.
	seeded atomic.Bool
}

// NewTokenSet returns a set holding the given tokens. Empty strings are
// skipped.
func NewTokenSet(tokens ...string) *TokenSet {
	s := &TokenSet{tokens: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		if t != "" {
			s.tokens[t] = struct{}{}
		}
	}
	s.seeded.Store(len(s.tokens) > 0)
	return s
}

// Contains reports whether token is allowed.
func (s *TokenSet) Contains(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[token]
	return ok
}

// LearnIfEmpty adds token if the set is empty. It returns true for at most one
// call over the lifetime of the set.
func (s *TokenSet) LearnIfEmpty(token string) bool {
	if token == "" || s.seeded.Load() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) > 0 {
		return false
	}
	s.tokens[token] = struct{}{}
	s.seeded.Store(true)
	return true
}

// Seeded reports whether the set holds at least one token.
func (s *TokenSet) Seeded() bool {
	return s.seeded.Load()
}

func (s *TokenSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Snapshot returns the tokens in sorted order.
func (s *TokenSet) Snapshot() []string {
	s.mu.RLock()
	out := make([]string, 0, len(s.tokens))
	for t := range s.tokens {
		out = append(out, t)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out
}
