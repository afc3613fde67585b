package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registration and login workflows.
type Metrics struct {
	Registrations           *prometheus.CounterVec
	Logins                  *prometheus.CounterVec
	WorkflowDuration        *prometheus.HistogramVec
	IncompleteRegistrations *prometheus.CounterVec
	ReconciledDocuments     *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusid_registrations_total",
			Help: "Registration attempts by actor and outcome (success or failure kind)",
		}, []string{"actor", "outcome"}),
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusid_logins_total",
			Help: "Login attempts by actor and outcome",
		}, []string{"actor", "outcome"}),
		WorkflowDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusid_workflow_duration_seconds",
			Help:    "Duration of registration and login workflows",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"workflow", "actor"}),
		IncompleteRegistrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusid_incomplete_registrations_total",
			Help: "Registrations that created a credential but failed a profile write",
		}, []string{"actor"}),
		ReconciledDocuments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campusid_reconciled_documents_total",
			Help: "Student projections recreated by the reconciliation sweep",
		}, []string{"collection"}),
	}
}

func (m *Metrics) IncrementRegistration(actor, outcome string) {
	m.Registrations.WithLabelValues(actor, outcome).Inc()
}

func (m *Metrics) IncrementLogin(actor, outcome string) {
	m.Logins.WithLabelValues(actor, outcome).Inc()
}

// ObserveWorkflow records the duration of a workflow.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveWorkflow(workflow, actor string, start time.Time) {
	m.WorkflowDuration.WithLabelValues(workflow, actor).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementIncomplete(actor string) {
	m.IncompleteRegistrations.WithLabelValues(actor).Inc()
}

func (m *Metrics) AddReconciled(collection string, n int) {
	m.ReconciledDocuments.WithLabelValues(collection).Add(float64(n))
}
