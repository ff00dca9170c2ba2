// Package identity generates time-ordered entity IDs and resolves
// user-typed short prefixes against candidate sets.
//
// IDs are UUIDv7: the high 48 bits embed the creation timestamp in
// milliseconds, so lexicographic order is creation order. Users refer to
// entities by an 8+ character case-insensitive prefix of the
// hyphen-stripped form.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/loom-sh/loom/internal/domain"
)

// FullLength is the length of a hyphenated UUID string.
const FullLength = 36

// ShortLength is the display prefix length.
const ShortLength = 8

// New generates a time-ordered UUIDv7 identifier.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source does; fall back to v4
		// rather than propagating an error through every create path.
		return uuid.NewString()
	}
	return id.String()
}

// Normalize strips hyphens and lowercases an ID or prefix.
func Normalize(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// IsFull reports whether s is a full-length hyphenated ID. Full IDs skip
// prefix scanning entirely; callers pass full IDs and short prefixes
// interchangeably.
func IsFull(s string) bool {
	return len(s) == FullLength && strings.Contains(s, "-")
}

// Resolve matches prefix against candidates and returns the single full ID
// it identifies. It returns *domain.NotFoundError when nothing matches and
// *domain.AmbiguousError (carrying all matches) when more than one does.
func Resolve(entity, prefix string, candidates []string) (string, error) {
	if IsFull(prefix) {
		return prefix, nil
	}

	normalized := Normalize(prefix)
	var matches []string
	for _, id := range candidates {
		if strings.HasPrefix(Normalize(id), normalized) {
			matches = append(matches, id)
		}
	}

	switch len(matches) {
	case 0:
		return "", &domain.NotFoundError{Entity: entity, Ref: prefix}
	case 1:
		return matches[0], nil
	default:
		return "", &domain.AmbiguousError{Entity: entity, Prefix: prefix, Matches: matches}
	}
}

// Short truncates an ID to n characters of its hyphen-stripped form for
// display. The result is not reversible; prefix collisions are accepted
// because the short form is never a storage key.
func Short(id string, n int) string {
	s := Normalize(id)
	if n <= 0 {
		n = ShortLength
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
