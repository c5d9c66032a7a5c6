package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/priorledger/internal/index"
	"github.com/roach88/priorledger/internal/ir"
)

// MinKeywordMatches is the number of experiment id tokens a prior must
// contain to be considered a keyword match.
const MinKeywordMatches = 2

// target is one routed prior and how it was found.
type target struct {
	entry      ir.PriorIndexEntry
	confidence ir.MappingConfidence
}

// routeRefs resolves explicit prior refs in order. Unresolved and ambiguous
// refs produce diagnostics and no target. A prior named twice is routed once.
func routeRefs(refs []string, idx *index.Index) ([]target, []string) {
	var (
		targets []target
		diags   []string
	)
	seen := make(map[string]bool)

	for _, ref := range refs {
		entry, ok, diag := resolveRef(ref, idx)
		if diag != "" {
			diags = append(diags, diag)
		}
		if !ok {
			continue
		}
		key := entry.ArtifactPath + "#" + entry.PriorID
		if seen[key] {
			continue
		}
		seen[key] = true
		targets = append(targets, target{entry: entry, confidence: ir.MappingExact})
	}
	return targets, diags
}

// resolveRef tries scope#id, then path#id, then a bare id that exactly one
// scope defines.
func resolveRef(ref string, idx *index.Index) (ir.PriorIndexEntry, bool, string) {
	if _, _, qualified := index.SplitRef(ref); qualified {
		if e, ok := idx.ByQualifiedRef(ref); ok {
			return e, true, ""
		}
		if e, ok := idx.ByPathRef(ref); ok {
			return e, true, ""
		}
		return ir.PriorIndexEntry{}, false, "Prior ref not found: " + ref
	}

	scopes := idx.Scopes(ref)
	switch len(scopes) {
	case 0:
		return ir.PriorIndexEntry{}, false, "Prior ref not found: " + ref
	case 1:
		return idx.ByBareID(ref)[0], true, ""
	default:
		return ir.PriorIndexEntry{}, false, fmt.Sprintf(
			"Ambiguous prior ref: %s is defined in scopes [%s]; use a qualified ref (scope#id)",
			ref, strings.Join(scopes, ", "))
	}
}

// Tokenize splits an experiment id on '.', '-' and '_' into lowercase tokens.
func Tokenize(experimentID string) []string {
	lower := cases.Lower(language.Und).String(experimentID)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	})
}

// routeKeywords scores every indexed prior by how many experiment id tokens
// its id and statement contain. All priors tied at the best qualifying score
// are selected; a tie of more than one is ambiguous.
func routeKeywords(experimentID string, idx *index.Index, src PriorSource) ([]target, []string) {
	tokens := Tokenize(experimentID)
	lower := cases.Lower(language.Und)

	var (
		best    int
		winners []ir.PriorIndexEntry
	)
	for _, e := range idx.Entries {
		p, ok := src.Prior(e.ArtifactPath, e.PriorID)
		if !ok {
			continue
		}
		haystack := lower.String(p.ID + " " + p.Statement)

		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		switch {
		case score < MinKeywordMatches || score < best:
		case score > best:
			best = score
			winners = []ir.PriorIndexEntry{e}
		default:
			winners = append(winners, e)
		}
	}

	if len(winners) == 0 {
		return nil, []string{"No matching priors found for experiment: " + experimentID}
	}
	if len(winners) == 1 {
		return []target{{entry: winners[0], confidence: ir.MappingKeyword}}, nil
	}

	refs := make([]string, len(winners))
	targets := make([]target, len(winners))
	for i, e := range winners {
		refs[i] = e.QualifiedRef
		targets[i] = target{entry: e, confidence: ir.MappingAmbiguous}
	}
	diag := fmt.Sprintf("Ambiguous keyword match for experiment %s: %d priors tied at %d matching tokens [%s]",
		experimentID, len(winners), best, strings.Join(refs, ", "))
	return targets, []string{diag}
}
