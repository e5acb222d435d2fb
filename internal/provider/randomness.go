// Package provider holds clients for external services. The randomness
// oracle is the only provider the engine consumes.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/chainquest/platform/internal/engine"
)

// RandomnessOracle fetches unbiased random words from RANDOM.ORG.
//
// The reward fairness guarantee is a product requirement: there is no
// PRNG or CSPRNG fallback here. A failed or timed-out request is returned
// as an error and the caller leaves the quest completed-pending-dispense.
type RandomnessOracle struct {
	apiKey string
	url    string
	logger *slog.Logger
	client *http.Client
}

const randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

var _ engine.RandomSource = (*RandomnessOracle)(nil)

// NewRandomnessOracle creates a RANDOM.ORG-backed oracle client.
func NewRandomnessOracle(apiKey string, logger *slog.Logger) *RandomnessOracle {
	return &RandomnessOracle{
		apiKey: apiKey,
		url:    randomOrgURL,
		logger: logger,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// RandomWords returns n uniform random words in [0, engine.RandomWordMax).
func (o *RandomnessOracle) RandomWords(ctx context.Context, n int) ([]uint64, error) {
	if n < 1 {
		return nil, fmt.Errorf("word count must be >= 1, got %d", n)
	}
	if o.apiKey == "" {
		return nil, fmt.Errorf("randomness oracle api key not configured")
	}

	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]interface{}{
			"apiKey":      o.apiKey,
			"n":           n,
			"min":         0,
			"max":         engine.RandomWordMax - 1,
			"replacement": true,
		},
		"id": 1,
	}

	body, _ := json.Marshal(reqBody)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle returned %d", resp.StatusCode)
	}

	var response struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("oracle error: %s", response.Error.Message)
	}

	data := response.Result.Random.Data
	if len(data) != n {
		return nil, fmt.Errorf("oracle returned %d words, want %d", len(data), n)
	}

	words := make([]uint64, n)
	for i, v := range data {
		if v < 0 || v >= engine.RandomWordMax {
			return nil, fmt.Errorf("oracle word %d out of range", v)
		}
		words[i] = uint64(v)
	}

	o.logger.Debug("oracle words fetched", "count", n)
	return words, nil
}
