package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	assert.NotPanics(t, func() {
		ObserveAPI("book-room", 201, 15*time.Millisecond)
		IncHTTP("/booking/book-room")
	})

	before := testutil.ToFloat64(workflowOutcomes.WithLabelValues("PaymentSucceeded"))
	IncWorkflowOutcome("PaymentSucceeded")
	assert.Equal(t, before+1, testutil.ToFloat64(workflowOutcomes.WithLabelValues("PaymentSucceeded")))

	assert.Equal(t, float64(1), testutil.ToFloat64(apiRequests.WithLabelValues("book-room", "201")))
}
