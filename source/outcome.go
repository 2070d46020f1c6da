package source

import (
	"github.com/samber/mo"
)

// Outcome is the result of asking one provider for data. A degraded
// outcome still carries the empty value callers see, plus the cause.
type Outcome[T any] struct {
	ProviderID string
	Result     mo.Result[T]
	empty      T
}

// Ok wraps successfully retrieved data.
func Ok[T any](providerID string, value T) Outcome[T] {
	return Outcome[T]{ProviderID: providerID, Result: mo.Ok(value)}
}

// Degraded records a failure together with the value to fall back to.
func Degraded[T any](providerID string, empty T, cause error) Outcome[T] {
	return Outcome[T]{ProviderID: providerID, Result: mo.Err[T](cause), empty: empty}
}

// Value returns the data, or the fallback value when degraded.
func (o Outcome[T]) Value() T {
	return o.Result.OrElse(o.empty)
}

// Cause returns the underlying error of a degraded outcome.
func (o Outcome[T]) Cause() error {
	return o.Result.Error()
}

// IsDegraded reports whether the provider failed.
func (o Outcome[T]) IsDegraded() bool {
	return o.Result.IsError()
}
