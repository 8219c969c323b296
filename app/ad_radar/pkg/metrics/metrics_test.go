package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordDelivery(t *testing.T) {
	ok := DeliveriesTotal.WithLabelValues("slack", "success")
	fail := DeliveriesTotal.WithLabelValues("slack", "failure")
	okBefore, failBefore := testutil.ToFloat64(ok), testutil.ToFloat64(fail)

	RecordDelivery("slack", true)
	RecordDelivery("slack", false)
	RecordDelivery("slack", false)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failBefore+2, testutil.ToFloat64(fail))
}

func TestRecordTopic(t *testing.T) {
	c := TopicsTotal.WithLabelValues("fallback")
	before := testutil.ToFloat64(c)

	RecordTopic("fallback", 1.5)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
