package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainquest/platform/internal/domain"
	"github.com/chainquest/platform/internal/engine"
	"github.com/chainquest/platform/internal/guard"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func oracleAgainst(t *testing.T, handler http.HandlerFunc) *RandomnessOracle {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	o := NewRandomnessOracle("test-key", testLogger())
	o.url = srv.URL
	return o
}

func TestRandomnessOracle_FetchesWords(t *testing.T) {
	o := oracleAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"random":{"data":[123456789,987654321]}}}`)
	})

	words, err := o.RandomWords(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{123456789, 987654321}, words)
}

func TestRandomnessOracle_NoFallbackWithoutKey(t *testing.T) {
	o := NewRandomnessOracle("", testLogger())

	_, err := o.RandomWords(context.Background(), 1)
	assert.Error(t, err)
}

func TestRandomnessOracle_RejectsInvalidCount(t *testing.T) {
	o := NewRandomnessOracle("test-key", testLogger())

	_, err := o.RandomWords(context.Background(), 0)
	assert.Error(t, err)
}

func TestRandomnessOracle_SurfacesAPIError(t *testing.T) {
	o := oracleAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"message":"quota exceeded"}}`)
	})

	_, err := o.RandomWords(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRandomnessOracle_RejectsShortResponse(t *testing.T) {
	o := oracleAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"random":{"data":[1]}}}`)
	})

	_, err := o.RandomWords(context.Background(), 3)
	assert.Error(t, err)
}

func TestRandomnessOracle_RejectsOutOfRangeWord(t *testing.T) {
	o := oracleAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"result":{"random":{"data":[%d]}}}`, engine.RandomWordMax)
	})

	_, err := o.RandomWords(context.Background(), 1)
	assert.Error(t, err)
}

func TestRandomnessOracle_NonOKStatus(t *testing.T) {
	o := oracleAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := o.RandomWords(context.Background(), 1)
	assert.Error(t, err)
}

type scriptedSource struct {
	words []uint64
	err   error
	calls int
}

func (s *scriptedSource) RandomWords(_ context.Context, n int) ([]uint64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.words[:n], nil
}

func TestGuardedRandomSource_PassesThrough(t *testing.T) {
	src := &scriptedSource{words: []uint64{42}}
	g := NewGuardedRandomSource(src, guard.NewCircuitBreaker(3, time.Minute))

	words, err := g.RandomWords(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{42}, words)
}

func TestGuardedRandomSource_OpensAfterRepeatedFailures(t *testing.T) {
	src := &scriptedSource{err: errors.New("oracle down")}
	g := NewGuardedRandomSource(src, guard.NewCircuitBreaker(2, time.Minute))

	_, err := g.RandomWords(context.Background(), 1)
	require.Error(t, err)
	_, err = g.RandomWords(context.Background(), 1)
	require.Error(t, err)

	// Circuit is open now: the delegate is no longer called.
	_, err = g.RandomWords(context.Background(), 1)
	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "ORACLE_FAILURE", appErr.Code)
	assert.Equal(t, 2, src.calls)
}

func TestGuardedRandomSource_SuccessKeepsCircuitClosed(t *testing.T) {
	src := &scriptedSource{words: []uint64{1, 2, 3}, err: nil}
	g := NewGuardedRandomSource(src, guard.NewCircuitBreaker(2, time.Minute))

	for i := 0; i < 3; i++ {
		_, err := g.RandomWords(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)
}
