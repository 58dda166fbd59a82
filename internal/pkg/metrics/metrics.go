package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hris"

var (
	attendanceActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "actions_total",
			Help:      "Count of accepted attendance punches by action.",
		},
		[]string{"action"},
	)
	attendanceRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "attendance",
			Name:      "rejections_total",
			Help:      "Count of attendance punches refused by the state rules, by action.",
		},
		[]string{"action"},
	)
	leaveRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leave",
			Name:      "requests_total",
			Help:      "Count of leave requests submitted, by leave type.",
		},
		[]string{"leave_type"},
	)
	leaveDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leave",
			Name:      "decisions_total",
			Help:      "Count of leave requests moved out of pending, by resulting status.",
		},
		[]string{"status"},
	)
)

// Registry holds the service metrics plus Go runtime and process collectors.
var Registry = prometheus.NewRegistry()

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		Registry.MustRegister(attendanceActions)
		Registry.MustRegister(attendanceRejections)
		Registry.MustRegister(leaveRequests)
		Registry.MustRegister(leaveDecisions)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

func RecordAttendanceAction(action string) {
	attendanceActions.WithLabelValues(action).Inc()
}

func RecordAttendanceRejection(action string) {
	attendanceRejections.WithLabelValues(action).Inc()
}

func RecordLeaveRequest(leaveType string) {
	leaveRequests.WithLabelValues(leaveType).Inc()
}

func RecordLeaveDecision(status string) {
	leaveDecisions.WithLabelValues(status).Inc()
}
