// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package qsock

import "github.com/prometheus/client_golang/prometheus"

type metrics struct {
	pairings *prometheus.CounterVec
	waiting  prometheus.Gauge
}

// newMetrics builds the registry collectors and registers them with reg
// when it is not nil.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		pairings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qsock",
			Name:      "pairings_total",
			Help:      "Pairing attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qsock",
			Name:      "waiting_offers",
			Help:      "Callers currently parked on an exchange point.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.pairings, m.waiting)
	}
	return m
}

func (m *metrics) observe(role Role, res outcome) {
	m.pairings.WithLabelValues(role.String(), res.String()).Inc()
}
