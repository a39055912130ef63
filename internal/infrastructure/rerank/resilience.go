package rerank

import (
	"context"
	"errors"
	"net"

	"github.com/kirillkom/campus-faq-assistant/internal/infrastructure/resilience"
)

func classifyRerankError(err error) resilience.ErrorClassification {
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

	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{
			Retryable:     true,
			RecordFailure: true,
		}
	}

	// The orchestrator degrades to the pre-rerank order on any scoring
	// failure, so unknown errors are not worth retrying here.
	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}
