package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/Logan1xl/suivie-academique/internal/models"
)

type codeExistsChecker interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

const maxCodeAttempts = 100

// CodeGenerator produces unique staff business codes of the form
// <role prefix><year><random number>, e.g. ENS202464123.
type CodeGenerator struct {
	staff codeExistsChecker
	now   func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCodeGenerator constructs a generator backed by the staff store.
func NewCodeGenerator(staff codeExistsChecker) *CodeGenerator {
	return &CodeGenerator{
		staff: staff,
		now:   time.Now,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Generate returns a fresh code for the given role, retrying on collision.
func (g *CodeGenerator) Generate(ctx context.Context, role models.StaffRole) (string, error) {
	prefix := role.CodePrefix()
	year := g.now().Year()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		g.mu.Lock()
		n := g.rng.Int63n(99000) + 1000
		g.mu.Unlock()

		code := fmt.Sprintf("%s%d%d", prefix, year, n)
		taken, err := g.staff.ExistsByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check staff code uniqueness: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("exhausted %d attempts generating a staff code", maxCodeAttempts)
}
