// Package metrics exports run results as a node_exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexisbeaulieu97/jenkins-bootstrap/internal/model"
)

// Metrics wraps Prometheus collectors for one converge run.
type Metrics struct {
	registry            *prometheus.Registry
	stepDurationSeconds *prometheus.GaugeVec
	stepMutated         *prometheus.GaugeVec
	mutationsTotal      prometheus.Gauge
	serviceAction       *prometheus.GaugeVec
	readinessSeconds    prometheus.Gauge
	readinessAttempts   prometheus.Gauge
	runDurationSeconds  prometheus.Gauge
	lastRunSuccess      prometheus.Gauge
	lastRunTimestamp    prometheus.Gauge
}

// New initializes a Metrics registry labelled with driver.
func New(driver string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"driver": driver}
	m := &Metrics{
		registry: registry,
		stepDurationSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_step_duration_seconds",
			Help:        "Duration of each pipeline step in seconds.",
			ConstLabels: labels,
		}, []string{"step", "status"}),
		stepMutated: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_step_mutated",
			Help:        "1 when the step changed the host during the last run.",
			ConstLabels: labels,
		}, []string{"step"}),
		mutationsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_mutations_total",
			Help:        "Steps that changed the host during the last run.",
			ConstLabels: labels,
		}),
		serviceAction: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_service_action",
			Help:        "Service action taken by the last run.",
			ConstLabels: labels,
		}, []string{"action"}),
		readinessSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_readiness_seconds",
			Help:        "Time until the service answered its readiness probe.",
			ConstLabels: labels,
		}),
		readinessAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_readiness_attempts",
			Help:        "Readiness probes sent during the last run.",
			ConstLabels: labels,
		}),
		runDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_run_duration_seconds",
			Help:        "Duration of the last run in seconds.",
			ConstLabels: labels,
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_last_run_success",
			Help:        "1 when the last run converged the host.",
			ConstLabels: labels,
		}),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "jenkins_bootstrap_last_run_timestamp_seconds",
			Help:        "Unix timestamp of the last run.",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		m.stepDurationSeconds,
		m.stepMutated,
		m.mutationsTotal,
		m.serviceAction,
		m.readinessSeconds,
		m.readinessAttempts,
		m.runDurationSeconds,
		m.lastRunSuccess,
		m.lastRunTimestamp,
	)

	return m
}

// Record loads report into the collectors. runErr marks the run failed.
func (m *Metrics) Record(report *model.RunReport, runErr error, at time.Time) {
	if m == nil || report == nil {
		return
	}

	for _, r := range report.Results {
		m.stepDurationSeconds.WithLabelValues(r.StepID, r.Status).Set(r.Duration.Seconds())
		mutated := 0.0
		if r.Mutated() {
			mutated = 1
		}
		m.stepMutated.WithLabelValues(r.StepID).Set(mutated)
	}
	m.mutationsTotal.Set(float64(report.MutationCount()))

	for _, action := range []model.ServiceAction{model.ActionRestart, model.ActionStart, model.ActionNone} {
		v := 0.0
		if report.Action == action {
			v = 1
		}
		m.serviceAction.WithLabelValues(string(action)).Set(v)
	}

	m.readinessSeconds.Set(report.Readiness.Elapsed.Seconds())
	m.readinessAttempts.Set(float64(report.Readiness.Attempts))
	m.runDurationSeconds.Set(report.Duration.Seconds())

	if runErr == nil {
		m.lastRunSuccess.Set(1)
	} else {
		m.lastRunSuccess.Set(0)
	}
	m.lastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. The
// file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
