package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// Operation names a domain call for logs and error context.
type Operation struct {
	Name       string
	Collection string
	ID         string
}

func (o Operation) String() string {
	parts := []string{o.Name}

	target := o.Collection

	switch {
	case o.ID == "":
	case target == "":
		target = o.ID
	default:
		target += "/" + o.ID
	}

	if target != "" {
		parts = append(parts, target)
	}

	return strings.Join(parts, " ")
}

func (o Operation) fields(err error) map[string]interface{} {
	fields := map[string]interface{}{
		"operation": o.Name,
		"error":     err.Error(),
	}

	if o.Collection != "" {
		fields["collection"] = o.Collection
	}

	if o.ID != "" {
		fields["id"] = o.ID
	}

	if status := arium.StatusCode(err); status != 0 {
		fields["status"] = status
	}

	return fields
}

// WithErrorHandling wraps op so that its failures are logged at error level
// and returned with the operation as context. The original error stays
// reachable through errors.Is and errors.As.
func WithErrorHandling[T any](op func(ctx context.Context) (T, error), operation Operation, logger arium.Logger) func(ctx context.Context) (T, error) {
	if logger == nil {
		logger = arium.NoopLogger{}
	}

	return func(ctx context.Context) (T, error) {
		result, err := op(ctx)
		if err != nil {
			logger.Error("Operation failed", operation.fields(err))

			return result, fmt.Errorf("%s: %w", operation, err)
		}

		return result, nil
	}
}
