package decode

import (
	"errors"
	"fmt"

	"github.com/pithecene-io/scanwatch/types"
)

// Hints is the immutable parameter set passed to every decode attempt.
// Build once per engine; backends derive their reader set from it at
// acquisition and reuse it for every frame.
type Hints struct {
	symbologies []types.Symbology
	tryHarder   bool
}

// NewHints validates and copies the symbology list.
// Duplicates are dropped, first occurrence wins. At least one symbology is required.
func NewHints(symbologies []types.Symbology, tryHarder bool) (Hints, error) {
	if len(symbologies) == 0 {
		return Hints{}, errors.New("hints require at least one symbology")
	}

	seen := make(map[types.Symbology]struct{}, len(symbologies))
	list := make([]types.Symbology, 0, len(symbologies))
	for _, s := range symbologies {
		if !s.Valid() {
			return Hints{}, fmt.Errorf("unsupported symbology: %q", s)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		list = append(list, s)
	}

	return Hints{symbologies: list, tryHarder: tryHarder}, nil
}

// DefaultHints searches every supported symbology, thoroughly.
func DefaultHints() Hints {
	return Hints{symbologies: types.AllSymbologies(), tryHarder: true}
}

// Symbologies returns a copy of the symbologies to search for.
func (h Hints) Symbologies() []types.Symbology {
	out := make([]types.Symbology, len(h.symbologies))
	copy(out, h.symbologies)
	return out
}

// Includes returns true if s is in the search set.
func (h Hints) Includes(s types.Symbology) bool {
	for _, have := range h.symbologies {
		if have == s {
			return true
		}
	}
	return false
}

// TryHarder reports whether backends should trade speed for thoroughness.
func (h Hints) TryHarder() bool {
	return h.tryHarder
}

// IsZero reports whether h was never built.
func (h Hints) IsZero() bool {
	return len(h.symbologies) == 0
}
