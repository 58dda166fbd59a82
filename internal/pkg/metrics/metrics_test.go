package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAttendanceAction(t *testing.T) {
	before := testutil.ToFloat64(attendanceActions.WithLabelValues("check_in"))

	RecordAttendanceAction("check_in")
	RecordAttendanceAction("check_in")

	assert.Equal(t, before+2, testutil.ToFloat64(attendanceActions.WithLabelValues("check_in")))
}

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}
