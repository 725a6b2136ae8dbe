package service

import (
	"github.com/pulcova-api/internal/metrics"
	"github.com/pulcova-api/internal/models"
	"github.com/rs/zerolog"
)

// Result is the outcome of one page aggregate: a value or the error that prevented it
type Result[T any] struct {
	Value T
	Err   error
}

// resultOf captures a (value, error) pair
func resultOf[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// unwrap returns the aggregate value, or def when it failed. A failure is
// logged at error level and counted; it never fails the page.
func unwrap[T any](log zerolog.Logger, kind models.Kind, aggregate string, r Result[T], def T) T {
	if r.Err != nil {
		log.Error().
			Err(r.Err).
			Str("kind", string(kind)).
			Str("aggregate", aggregate).
			Msg("Aggregate failed, using empty default")
		metrics.RecordAggregateFailure(string(kind), aggregate)
		return def
	}
	return r.Value
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
