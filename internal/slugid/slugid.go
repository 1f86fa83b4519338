// Package slugid generates and validates base-62 slugs and aliases.
package slugid

import (
	"crypto/rand"
	"regexp"
	"strconv"
)

// Alphabet is the base-62 character set slugs are drawn from. Order matters
// only in that it fixes the mapping from a random byte to a character; it
// carries no ordering guarantee for callers.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	// AliasMinLength and AliasMaxLength bound custom aliases accepted on write.
	AliasMinLength = 3
	AliasMaxLength = 64
)

var aliasPattern = regexp.MustCompile(`^[0-9A-Za-z]{` + strconv.Itoa(AliasMinLength) + `,` + strconv.Itoa(AliasMaxLength) + `}$`)

// ValidAlias reports whether s is an acceptable custom alias: base-62
// characters only, length within [AliasMinLength, AliasMaxLength].
func ValidAlias(s string) bool {
	return aliasPattern.MatchString(s)
}

// ValidGenerated reports whether s could have been produced by Generate for
// the given slug length: base-62 characters, exactly that length. Used by
// redirect-svc to short-circuit malformed lookups before touching any
// backing store.
func ValidGenerated(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBase62(s[i]) {
			return false
		}
	}
	return true
}

func isBase62(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= 'a' && b <= 'z':
		return true
	default:
		return false
	}
}

// Generate returns a cryptographically random base-62 string of the given
// length. Rejection sampling eliminates modulo bias: bytes at or above
// unbiasedCeiling (256 - 256%62 = 248) are discarded so every character has
// equal probability.
func Generate(length int) (string, error) {
	const unbiasedCeiling = 256 - 256%len(Alphabet)
	result := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(result) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) < unbiasedCeiling {
				result = append(result, Alphabet[int(b)%len(Alphabet)])
				if len(result) == length {
					break
				}
			}
		}
	}
	return string(result), nil
}

// GenerateBatch returns n distinct random slugs of the given length,
// de-duplicated before returning (duplicates within a batch are silently
// collapsed, matching the lower bound on how many candidates callers
// actually need to check against the store).
func GenerateBatch(n, length int) ([]string, error) {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		s, err := Generate(length)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}
