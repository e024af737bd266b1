package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_stream_connects_total",
		Help: "Successful event stream connections, including reconnects.",
	})

	connectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_stream_connect_failures_total",
		Help: "Failed event stream dial attempts.",
	})

	disconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_stream_disconnects_total",
		Help: "Unexpected event stream disconnects.",
	})

	envelopesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "complaint_stream_envelopes_total",
		Help: "Envelopes delivered to the consumer.",
	})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "complaint_stream_dropped_total",
		Help: "Inbound frames dropped before delivery, by reason.",
	}, []string{"reason"})
)
