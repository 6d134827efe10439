package investigator

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// elements is the fixed vocabulary candidate formulas are built from. This
// stands in for a structure library or generative model behind the same
// contract.
var elements = []string{"Li", "Na", "K", "Mg", "Al", "Si", "P", "S", "Cl", "O"}

// proposeCandidates generates n candidate formulas from the loop's seeded RNG,
// three distinct elements each with small stoichiometric counts.
func proposeCandidates(rng *rand.Rand, n int) []string {
	candidates := make([]string, 0, n)
	for i := 0; i < n; i++ {
		pick := rng.Perm(len(elements))[:3]
		candidates = append(candidates, fmt.Sprintf("%s%d%s%d%s%d",
			elements[pick[0]], 1+rng.Intn(3),
			elements[pick[1]], 1+rng.Intn(3),
			elements[pick[2]], 1+rng.Intn(6)))
	}
	return candidates
}

// newID draws a UUID from the run's RNG instead of crypto/rand, so step record
// IDs, and therefore whole event payload sequences, reproduce from the seed.
func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// rand.Rand.Read never fails.
		panic(fmt.Sprintf("investigator: generate id: %v", err))
	}
	return id.String()
}
