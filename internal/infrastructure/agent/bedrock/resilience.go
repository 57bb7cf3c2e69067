package bedrock

import (
	"context"
	"errors"

	"github.com/aws/smithy-go"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
	"github.com/mkuznecov/realdoc-classifier/internal/infrastructure/resilience"
)

func classifyBedrockError(err error) resilience.ErrorClassification {
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

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException",
			"ServiceQuotaExceededException",
			"InternalServerException",
			"DependencyFailedException",
			"BadGatewayException":
			return resilience.ErrorClassification{
				Retryable:     true,
				RecordFailure: true,
			}
		case "ValidationException",
			"AccessDeniedException",
			"ResourceNotFoundException",
			"ConflictException":
			return resilience.ErrorClassification{
				Retryable:     false,
				RecordFailure: false,
			}
		}
	}

	// Unrecognized failures are usually transport interruptions on the
	// event stream, so treat them as transient.
	return resilience.ErrorClassification{
		Retryable:     true,
		RecordFailure: true,
	}
}

func wrapTemporaryIfNeeded(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	class := classifyBedrockError(err)
	if class.Retryable || resilience.IsCircuitOpen(err) {
		return domain.WrapError(domain.ErrTemporary, "bedrock invoke", err)
	}
	return err
}
