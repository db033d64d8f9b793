package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMode(t *testing.T) {
	assert.Equal(t, "persist", Mode(true))
	assert.Equal(t, "read_only", Mode(false))
}

func TestCandidatesEvaluated_Increments(t *testing.T) {
	before := testutil.ToFloat64(CandidatesEvaluated.WithLabelValues(OutcomeNoMatch))
	CandidatesEvaluated.WithLabelValues(OutcomeNoMatch).Inc()
	after := testutil.ToFloat64(CandidatesEvaluated.WithLabelValues(OutcomeNoMatch))
	assert.Equal(t, before+1, after)
}
