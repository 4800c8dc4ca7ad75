// The MIT License (MIT)
//
// # Copyright (c) 2016 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package metrics exposes GroundLift's Prometheus instrumentation: the
// observability-surface analogue of the teacher's --snmplog/pprof flags,
// wired to a promhttp.Handler instead of the teacher's homegrown SNMP
// dumper.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BytesReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "bytes_received_total",
		Help:      "Total bytes appended to received files.",
	})
	BytesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "bytes_sent_total",
		Help:      "Total bytes sent across acknowledged PUT chunks.",
	})
	TransfersSucceeded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "transfers_succeeded_total",
		Help:      "Transfers that completed with a final SUCCESS.",
	})
	TransfersFailed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "transfers_failed_total",
		Help:      "Transfers that ended in a protocol error (received bytes past the declared length, or an unexpected PUT reply).",
	})
	TransfersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "transfers_cancelled_total",
		Help:      "Transfers that ended via local or peer cancellation.",
	})
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "groundlift",
		Name:      "active_connections",
		Help:      "1 while a server has an active connection, 0 otherwise (the core services one at a time).",
	})
	DiscoveryRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "discovery_requests_sent_total",
		Help:      "GET/DISCOVER broadcasts sent by a requester.",
	})
	DiscoveryResponsesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "groundlift",
		Name:      "discovery_responses_sent_total",
		Help:      "SUCCESS replies sent by a discovery responder.",
	})
)

// Handler returns the promhttp handler a front-end mounts on --metrics-addr.
func Handler() http.Handler {
	return promhttp.Handler()
}
