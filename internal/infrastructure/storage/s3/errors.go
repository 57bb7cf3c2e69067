package s3

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "PreconditionFailed"
	}
	return false
}

// wrapStoreError marks server-side and transport failures as temporary
// so the storage router retries them; everything else surfaces as-is.
func wrapStoreError(op, key string, err error) error {
	msg := fmt.Sprintf("%s %s", op, key)
	if isRetryable(err) {
		return domain.WrapError(domain.ErrTemporary, msg, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func isRetryable(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "InternalError", "ServiceUnavailable", "RequestTimeout":
			return true
		default:
			return false
		}
	}
	// Non-API errors are transport failures (connection reset, DNS).
	return true
}
