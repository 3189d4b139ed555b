package proxy

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	requests       *prometheus.CounterVec
	uploadedBytes  prometheus.Counter
	deletedObjects prometheus.Counter
	reclaimedBytes prometheus.Counter
	authFailures   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memoryframe_proxy_requests_total",
				Help: "Total number of proxy requests by route and status",
			},
			[]string{"route", "status"},
		),
		uploadedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "memoryframe_proxy_uploaded_bytes_total",
				Help: "Total number of bytes accepted by direct uploads",
			},
		),
		deletedObjects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "memoryframe_proxy_deleted_objects_total",
				Help: "Total number of objects deleted",
			},
		),
		reclaimedBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "memoryframe_proxy_reclaimed_bytes_total",
				Help: "Total number of bytes reclaimed by deletes and cleanup",
			},
		),
		authFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memoryframe_proxy_auth_failures_total",
				Help: "Total number of rejected bearer tokens",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.requests, m.uploadedBytes, m.deletedObjects, m.reclaimedBytes, m.authFailures)
	return m
}

func (m *metrics) deleted(n int, bytes int64) {
	m.deletedObjects.Add(float64(n))
	m.reclaimedBytes.Add(float64(bytes))
}
