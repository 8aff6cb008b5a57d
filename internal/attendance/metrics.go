package attendance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tokensIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "schoolhub_qr_tokens_issued_total",
		Help: "Attendance QR tokens issued.",
	})

	scansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "schoolhub_qr_scans_total",
		Help: "Attendance scans by outcome.",
	}, []string{"result"})
)
