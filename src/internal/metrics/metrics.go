// FILE: src/internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Result label values
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultTruncated = "truncated"
	ResultExhausted = "exhausted"
	ResultSkipped   = "skipped"
)

var (
	// TransmitTotal counts server-side transmissions by mode and outcome
	TransmitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quantumlog_transmit_total",
		Help: "Envelope transmissions by transport mode and result",
	}, []string{"mode", "result"})

	// ShrinkTotal counts shrink runs by outcome
	ShrinkTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quantumlog_shrink_total",
		Help: "Shrink runs by result",
	}, []string{"result"})

	// FragmentsWritten counts cookie fragments set on responses
	FragmentsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quantumlog_fragments_written_total",
		Help: "Cookie fragments written to responses",
	})

	// PollDispatchTotal counts client dispatches by channel and outcome
	PollDispatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quantumlog_poll_dispatch_total",
		Help: "Poller dispatches by channel and result",
	}, []string{"channel", "result"})
)

// Handler exposes the default registry to a fasthttp router
func Handler() fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
}
