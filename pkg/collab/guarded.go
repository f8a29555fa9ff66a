package collab

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jordigilh/imagewave/pkg/xerrors"
)

// breakerSettings builds the shared circuit-breaker policy used for every
// collaborator: trip after 5 consecutive failures or a >50% failure rate
// over a rolling window of at least 10 requests, half-open after 30s.
func breakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return counts.ConsecutiveFailures >= 5
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio > 0.5
		},
	}
}

// GuardedVisionLLM wraps a VisionLLMClient with a circuit breaker so a
// model outage degrades to ModelUnavailable rather than hanging or
// cascading into every wave that calls it.
type GuardedVisionLLM struct {
	inner   VisionLLMClient
	breaker *gobreaker.CircuitBreaker
}

func NewGuardedVisionLLM(inner VisionLLMClient) *GuardedVisionLLM {
	return &GuardedVisionLLM{inner: inner, breaker: gobreaker.NewCircuitBreaker(breakerSettings("vision_llm"))}
}

func (g *GuardedVisionLLM) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Generate(ctx, req)
	})
	if err != nil {
		return "", translateBreakerError(err, "vision_llm", "generate")
	}
	return result.(string), nil
}

func (g *GuardedVisionLLM) MaxImageDimension(ctx context.Context, model string) int {
	return g.inner.MaxImageDimension(ctx, model)
}

// GuardedOCREngine wraps an OCREngine with the same breaker policy.
type GuardedOCREngine struct {
	inner   OCREngine
	breaker *gobreaker.CircuitBreaker
}

func NewGuardedOCREngine(inner OCREngine) *GuardedOCREngine {
	return &GuardedOCREngine{inner: inner, breaker: gobreaker.NewCircuitBreaker(breakerSettings("ocr_engine"))}
}

func (g *GuardedOCREngine) ExtractTextWithCoordinates(ctx context.Context, imagePath string) ([]TextRegion, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.ExtractTextWithCoordinates(ctx, imagePath)
	})
	if err != nil {
		return nil, translateBreakerError(err, "ocr_engine", "extract_text")
	}
	return result.([]TextRegion), nil
}

// GuardedEmbeddingModel wraps an EmbeddingModel with the same breaker
// policy.
type GuardedEmbeddingModel struct {
	inner   EmbeddingModel
	breaker *gobreaker.CircuitBreaker
}

func NewGuardedEmbeddingModel(inner EmbeddingModel) *GuardedEmbeddingModel {
	return &GuardedEmbeddingModel{inner: inner, breaker: gobreaker.NewCircuitBreaker(breakerSettings("embedding_model"))}
}

func (g *GuardedEmbeddingModel) Embed(ctx context.Context, imagePath string) ([]float32, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.inner.Embed(ctx, imagePath)
	})
	if err != nil {
		return nil, translateBreakerError(err, "embedding_model", "embed")
	}
	return result.([]float32), nil
}

// translateBreakerError maps an open/half-open breaker rejection, or any
// error surfaced by the wrapped call, onto xerrors.ModelUnavailable so
// callers (the wave catalog) can treat every collaborator outage the
// same way: emit `<wave>.unavailable` and continue.
func translateBreakerError(err error, component, operation string) error {
	return xerrors.ModelUnavailable(component, operation, err)
}
