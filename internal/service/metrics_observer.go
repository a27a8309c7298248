package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/massiyousfi23-source/Emargement/internal/model"
)

// RosterMetrics 点名册 Prometheus 指标
type RosterMetrics struct {
	members *prometheus.GaugeVec
	version prometheus.Gauge
}

// NewRosterMetrics 创建并注册指标
func NewRosterMetrics(reg prometheus.Registerer) *RosterMetrics {
	m := &RosterMetrics{
		members: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "emargement",
			Name:      "members",
			Help:      "Number of roster members by attendance status.",
		}, []string{"status"}),
		version: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "emargement",
			Name:      "roster_version",
			Help:      "Version of the current roster snapshot.",
		}),
	}
	reg.MustRegister(m.members, m.version)
	return m
}

// Observe 作为 RosterStore 观察者更新指标
func (m *RosterMetrics) Observe(snap Snapshot) {
	sum := Summarize(snap.Members)
	m.members.WithLabelValues(string(model.StatusPresent)).Set(float64(sum.Present))
	m.members.WithLabelValues(string(model.StatusAbsent)).Set(float64(sum.Absent))
	m.members.WithLabelValues(string(model.StatusUnmarked)).Set(float64(sum.Unmarked))
	m.version.Set(float64(snap.Version))
}
