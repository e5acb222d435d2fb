package provider

import (
	"context"
	"errors"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
)

const oracleCircuitKey = "oracle"

// GuardedRandomSource wraps a randomness source with a circuit breaker so
// a flapping oracle fails fast instead of stacking timeouts under load.
type GuardedRandomSource struct {
	src     engine.RandomSource
	breaker *guard.CircuitBreaker
}

// NewGuardedRandomSource wraps src with breaker.
func NewGuardedRandomSource(src engine.RandomSource, breaker *guard.CircuitBreaker) *GuardedRandomSource {
	return &GuardedRandomSource{src: src, breaker: breaker}
}

func (g *GuardedRandomSource) RandomWords(ctx context.Context, n int) ([]uint64, error) {
	if res := g.breaker.Check(ctx, oracleCircuitKey); !res.Allowed {
		return nil, domain.ErrOracle(errors.New(res.Reason))
	}
	words, err := g.src.RandomWords(ctx, n)
	if err != nil {
		g.breaker.RecordFailure(oracleCircuitKey)
		return nil, err
	}
	g.breaker.RecordSuccess(oracleCircuitKey)
	return words, nil
}

var _ engine.RandomSource = (*GuardedRandomSource)(nil)
