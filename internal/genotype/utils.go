package genotype

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// RandomElement picks a uniform element with optional RNG injection.
func RandomElement[T any](rng *rand.Rand, values []T) (T, error) {
	var zero T
	if len(values) == 0 {
		return zero, fmt.Errorf("values are required")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return values[rng.Intn(len(values))], nil
}

// newGenomeID derives a UUID from rng so seeded runs reproduce their IDs.
func newGenomeID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		return fmt.Sprintf("genome-%d", rng.Int63())
	}
	return id.String()
}
