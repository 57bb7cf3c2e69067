package storage

import (
	"context"
	"errors"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/core/usecase"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/resilience"
)

// NewRouteRetrier adapts the resilience executor to the storage router's
// retry hook. Transient store failures retry under the executor's linear
// backoff; key conflicts and missing objects end the round immediately.
func NewRouteRetrier(executor *resilience.Executor) usecase.RouteRetrier {
	return func(ctx context.Context, fn func(context.Context) error) error {
		return executor.Execute(ctx, "storage.route", fn, classifyRouteError)
	}
}

func classifyRouteError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}
	if domain.IsKind(err, domain.ErrStorageKeyConflict) || domain.IsKind(err, domain.ErrDocumentNotFound) {
		return resilience.ErrorClassification{
			Retryable:     false,
			RecordFailure: false,
		}
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
