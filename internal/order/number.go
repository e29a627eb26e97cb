package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// NewNumber generates a human-readable order number in the form
// ORD-<6-digit-timestamp-suffix>-<3-digit-random>. Consumers treat it as an
// opaque display string. Collisions are possible; the submission pipeline
// relies on the store's uniqueness constraint and regenerates on conflict
// rather than assuming uniqueness here.
func NewNumber() string {
	ts := time.Now().UnixMilli() % 1_000_000
	return fmt.Sprintf("ORD-%06d-%03d", ts, rand.IntN(1000))
}
