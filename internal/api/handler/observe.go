package handler

import (
	"errors"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/domain"
)

// resultLabel collapses an operation outcome into a low-cardinality metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrBilling):
		return "billing"
	case errors.Is(err, domain.ErrPlanResolution):
		return "plan_resolution"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrPermission):
		return "permission"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func observeBilling(operation string, err error) {
	metrics.BillingOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}
