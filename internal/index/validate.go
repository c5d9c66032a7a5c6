package index

import (
	"fmt"
	"strings"
)

// Conflict is one bare prior id defined under more than one scope.
type Conflict struct {
	PriorID string   `json:"prior_id"`
	Scopes  []string `json:"scopes"`
}

// DuplicateIDError lists every ambiguous bare id in an index.
type DuplicateIDError struct {
	Conflicts []Conflict
}

func (e *DuplicateIDError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s (scopes: %s)", c.PriorID, strings.Join(c.Scopes, ", "))
	}
	return fmt.Sprintf("ambiguous bare prior ids across artifacts; use qualified refs (scope#id): %s",
		strings.Join(parts, "; "))
}

// ValidateNoDuplicateBareIDs fails when any bare prior id maps to more than
// one scope. Conflicts are reported in first-appearance order.
func ValidateNoDuplicateBareIDs(idx *Index) error {
	var conflicts []Conflict
	seen := make(map[string]bool)
	for _, e := range idx.Entries {
		if seen[e.PriorID] {
			continue
		}
		seen[e.PriorID] = true

		if scopes := idx.Scopes(e.PriorID); len(scopes) > 1 {
			conflicts = append(conflicts, Conflict{PriorID: e.PriorID, Scopes: scopes})
		}
	}

	if len(conflicts) > 0 {
		return &DuplicateIDError{Conflicts: conflicts}
	}
	return nil
}
