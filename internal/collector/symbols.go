package collector

import "sync"

// SymbolSet is the shared set of known instruments, refreshed by the
// metadata collector and consulted by the other streams for soft
// validation. Unknown symbols are flagged, never rejected.
type SymbolSet struct {
	mu    sync.RWMutex
	known map[string]struct{}
}

// NewSymbolSet starts empty. Until the first metadata refresh lands every
// symbol is treated as known.
func NewSymbolSet() *SymbolSet {
	return &SymbolSet{}
}

// Replace swaps in the full symbol list from a metadata refresh.
func (s *SymbolSet) Replace(symbols []string) {
	known := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		known[sym] = struct{}{}
	}
	s.mu.Lock()
	s.known = known
	s.mu.Unlock()
}

// Known reports whether symbol appeared in the last metadata refresh. An
// unpopulated set reports true so startup ordering cannot flag everything.
func (s *SymbolSet) Known(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.known == nil {
		return true
	}
	_, ok := s.known[symbol]
	return ok
}

// Len returns the number of known symbols.
func (s *SymbolSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.known)
}
