package pipeline

import (
	"fmt"
	"strings"

	"metapipe/internal/apperrors"
)

// sequence file suffixes stripped before pairing rules are applied,
// longest first so ".fastq.gz" wins over ".gz".
var sequenceSuffixes = []string{".fastq.gz", ".fq.gz", ".fastq", ".fq"}

// pairRule is one forward/reverse naming convention. Rules are tried in
// order; the first match decides the assignment.
type pairRule struct {
	forward string
	reverse string
	infix   bool // match anywhere in the name rather than as a suffix
}

var pairRules = []pairRule{
	{forward: "_R1", reverse: "_R2"},
	{forward: "_1", reverse: "_2"},
	{forward: "_1.", reverse: "_2.", infix: true},
	{forward: ".1.", reverse: ".2.", infix: true},
}

// ValidatePair checks that names form a forward/reverse read pair and
// returns the two originals in forward, reverse order. The input order does
// not matter; the file carrying the "1" marker is forward.
func ValidatePair(names []string) (forward, reverse string, err error) {
	if len(names) != 2 {
		return "", "", apperrors.Validation("inputs",
			fmt.Sprintf("expected exactly 2 files, got %d", len(names)))
	}

	a, b := names[0], names[1]
	baseA, baseB := stripSequenceSuffix(a), stripSequenceSuffix(b)

	for _, rule := range pairRules {
		if fwd, rev, ok := rule.match(a, baseA, b, baseB); ok {
			return fwd, rev, nil
		}
	}

	return "", "", apperrors.Validation("inputs",
		fmt.Sprintf("files %q and %q do not form a read pair: expected _R1/_R2 or _1/_2 suffixes, or _1./_2. or .1./.2. markers, sharing a common prefix", a, b))
}

// match tries the rule in both input orders and verifies the names share a
// common prefix before the pair marker.
func (r pairRule) match(a, baseA, b, baseB string) (forward, reverse string, ok bool) {
	if prefix, found := r.splitAt(baseA, r.forward); found {
		if prefixB, foundB := r.splitAt(baseB, r.reverse); foundB && prefix == prefixB {
			return a, b, true
		}
	}
	if prefix, found := r.splitAt(baseB, r.forward); found {
		if prefixA, foundA := r.splitAt(baseA, r.reverse); foundA && prefix == prefixA {
			return b, a, true
		}
	}
	return "", "", false
}

// splitAt returns the name's prefix before the marker. Suffix rules require
// the marker at the end of the (suffix-stripped) name; infix rules accept
// the last occurrence anywhere.
func (r pairRule) splitAt(base, marker string) (prefix string, ok bool) {
	if r.infix {
		idx := strings.LastIndex(base, marker)
		if idx < 0 {
			return "", false
		}
		return base[:idx], true
	}
	if !strings.HasSuffix(base, marker) {
		return "", false
	}
	return strings.TrimSuffix(base, marker), true
}

func stripSequenceSuffix(name string) string {
	for _, suffix := range sequenceSuffixes {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}
