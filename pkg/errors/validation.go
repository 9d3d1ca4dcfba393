package errors

import (
	"strings"
	"unicode"
)

// maxIdentityLength bounds node identities supplied by introspection adapters.
const maxIdentityLength = 256

// ValidateIdentity validates a node identity from a snapshot description.
//
// The rules are intentionally conservative:
//   - No empty identities
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateIdentity(id string) error {
	if id == "" {
		return New(ErrCodeMalformedNode, "node identity cannot be empty")
	}

	if len(id) > maxIdentityLength {
		return New(ErrCodeMalformedNode, "node identity too long (max %d characters)", maxIdentityLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeMalformedNode, "node identity contains invalid control characters")
		}
	}

	return nil
}

// ValidateBindingName validates the name of a top-level binding.
// Nested variables may be unnamed (unordered collections), but a frame
// binding always needs a name to label its arrow.
func ValidateBindingName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "binding name cannot be empty")
	}

	for _, r := range name {
		if r == '\x00' || r == '\n' || r == '\r' {
			return New(ErrCodeInvalidInput, "binding name %q contains invalid characters", name)
		}
	}

	return nil
}

// ValidatePermutation checks that perm is a permutation of 0..n-1.
func ValidatePermutation(perm []int, n int) error {
	if len(perm) != n {
		return New(ErrCodeInvalidInput, "permutation has %d entries, want %d", len(perm), n)
	}

	seen := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n {
			return New(ErrCodeInvalidInput, "permutation index %d out of range [0,%d)", p, n)
		}
		if seen[p] {
			return New(ErrCodeInvalidInput, "permutation repeats index %d", p)
		}
		seen[p] = true
	}

	return nil
}
