// Package ai runs the inventory advice flows against a generative model.
//
// Each flow renders a prompt from the inventory snapshot, asks the model for
// JSON matching a response schema, and validates what comes back against the
// snapshot before returning it. Recommendations that name unknown depots or
// lots, move stock to the depot it came from, or ask for more than is on hand
// are moved to Discarded instead of being returned as advice.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crucial707/ammotrack/internal/cache"
	"github.com/crucial707/ammotrack/internal/metrics"
	"google.golang.org/genai"
)

var (
	// ErrDisabled is returned when no model is configured.
	ErrDisabled = errors.New("ai is not configured")
	// ErrProvider wraps failures talking to the model or decoding its answer.
	ErrProvider = errors.New("ai provider error")
	// ErrInvalidInput is returned for requests the flow cannot run on.
	ErrInvalidInput = errors.New("invalid ai input")
)

// Generator produces a JSON document for prompt that conforms to schema.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) ([]byte, error)
}

// Discarded is a model suggestion that failed validation.
type Discarded struct {
	Item   any    `json:"item"`
	Reason string `json:"reason"`
}

// Options are shared by both flows.
type Options struct {
	Cache cache.Cache
	TTL   time.Duration
	// Model is mixed into cache keys so switching models does not serve stale answers.
	Model string
}

func (o Options) cache() cache.Cache {
	if o.Cache == nil {
		return cache.Noop{}
	}
	return o.Cache
}

// generate calls gen, or returns a cached response for the same prompt.
func generate(ctx context.Context, flow string, gen Generator, opts Options, prompt string, schema *genai.Schema, out any) (cached bool, err error) {
	if gen == nil {
		return false, ErrDisabled
	}
	start := time.Now()
	status := "ok"
	defer func() {
		if err != nil {
			status = "error"
		}
		metrics.ObserveAIFlow(flow, status, time.Since(start))
	}()

	key := cacheKey(flow, opts.Model, prompt)
	c := opts.cache()
	if b, ok, cerr := c.Get(ctx, key); cerr != nil {
		slog.Warn("ai cache get failed", "flow", flow, "err", cerr)
	} else if ok {
		if jerr := json.Unmarshal(b, out); jerr == nil {
			status = "cached"
			return true, nil
		}
	}

	b, err := gen.GenerateJSON(ctx, prompt, schema)
	if err != nil {
		return false, fmt.Errorf("%s: %w: %v", flow, ErrProvider, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("%s: decode model response: %w: %v", flow, ErrProvider, err)
	}
	if opts.TTL > 0 {
		if cerr := c.Set(ctx, key, b, opts.TTL); cerr != nil {
			slog.Warn("ai cache set failed", "flow", flow, "err", cerr)
		}
	}
	return false, nil
}

func cacheKey(flow, model, prompt string) string {
	sum := sha256.Sum256([]byte(flow + "\x00" + model + "\x00" + prompt))
	return flow + ":" + hex.EncodeToString(sum[:])
}
