// Package password hashes and verifies account passwords with bcrypt. The
// salt is generated per call and embedded in the returned hash.
package password

import (
	"fmt"

	"github.com/dmitrijs2005/peoplebook/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxLength is the longest password bcrypt accepts, in bytes.
const MaxLength = 72

// Hasher is safe for concurrent use.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using the given bcrypt cost. The cost is checked
// on every Hash call, so a misconfigured value surfaces as an error there.
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: cost}
}

// Hash returns the bcrypt hash of plain. A password longer than MaxLength
// yields common.ErrorValidation; an invalid cost or any other bcrypt failure
// is returned wrapped as-is.
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > MaxLength {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, MaxLength)
	}
	if h.cost < bcrypt.MinCost || h.cost > bcrypt.MaxCost {
		return "", fmt.Errorf("hash password: %w", bcrypt.InvalidCostError(h.cost))
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plain matches hash. An empty password, an empty or
// malformed hash all report false.
func (h *Hasher) Verify(plain, hash string) bool {
	if plain == "" || hash == "" {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}
