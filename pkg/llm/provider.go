// Package llm provides the reasoning-capability boundary for the workflow
// engine: a Provider interface, a registry that selects providers by id and
// applies bounded call retries, lenient JSON extraction for model output,
// and prompt token accounting.
//
// The workflow core never branches on provider identity beyond naming which
// registered provider to call.
package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for LLM integrations.
//
// Respond sends a single system+user prompt pair, optionally with PNG image
// attachments given as file paths, and returns the model's full text output.
// Implementations handle transport and authentication; they do not retry.
type Provider interface {
	Respond(ctx context.Context, systemPrompt, userPrompt string, images []string) (string, error)
}

// ErrUnsupportedProvider is returned when a job names a provider that has no
// registered implementation.
type ErrUnsupportedProvider struct {
	Provider string
}

func (e ErrUnsupportedProvider) Error() string {
	return fmt.Sprintf("unsupported LLM provider: %s", e.Provider)
}

const (
	// DefaultAttempts is how many times a single reasoning call is tried
	// before the error escalates to the caller.
	DefaultAttempts = 3

	// DefaultBackoff is the pause between attempts.
	DefaultBackoff = 2 * time.Second
)

// Registry holds the configured providers and applies the call-boundary retry
// policy. This retry covers transient API failures only; task-level
// self-healing is governed separately by the workflow's retry counter.
type Registry struct {
	providers map[string]Provider
	attempts  int
	backoff   time.Duration
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithAttempts overrides the per-call attempt count.
func WithAttempts(n int) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.attempts = n
		}
	}
}

// WithBackoff overrides the pause between attempts.
func WithBackoff(d time.Duration) RegistryOption {
	return func(r *Registry) {
		if d >= 0 {
			r.backoff = d
		}
	}
}

// NewRegistry creates an empty provider registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		attempts:  DefaultAttempts,
		backoff:   DefaultBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a provider under the given id, replacing any previous one.
func (r *Registry) Register(id string, p Provider) {
	r.providers[id] = p
}

// Has reports whether a provider is registered under the given id.
func (r *Registry) Has(id string) bool {
	_, ok := r.providers[id]
	return ok
}

// Respond calls the named provider, retrying transient failures with a fixed
// backoff. The last error is returned once attempts are exhausted.
func (r *Registry) Respond(ctx context.Context, providerID, systemPrompt, userPrompt string, images []string) (string, error) {
	provider, ok := r.providers[providerID]
	if !ok {
		return "", ErrUnsupportedProvider{Provider: providerID}
	}

	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(r.backoff):
			}
		}

		text, err := provider.Respond(ctx, systemPrompt, userPrompt, images)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}

	return "", fmt.Errorf("llm call failed after %d attempts: %w", r.attempts, lastErr)
}
