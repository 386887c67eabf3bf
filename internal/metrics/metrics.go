// Copyright 2025 The BadgeLink Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics provides Prometheus metrics for a BadgeLink server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Requests
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgelink_requests_total",
			Help: "Total number of requests dispatched, by kind and status",
		},
		[]string{"kind", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "badgelink_request_duration_seconds",
			Help:    "Time spent handling a request",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Framing
	framesDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgelink_frames_dropped_total",
			Help: "Total number of inbound frames dropped without a response",
		},
		[]string{"reason"},
	)

	garbageBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badgelink_garbage_bytes_total",
			Help: "Total bytes skipped while searching for frames",
		},
	)

	syncsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "badgelink_syncs_total",
			Help: "Total number of sync packets handled",
		},
	)

	// Transfers
	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgelink_transfers_total",
			Help: "Total number of transfers, by outcome",
		},
		[]string{"domain", "direction", "outcome"},
	)

	transferBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badgelink_transfer_bytes_total",
			Help: "Total payload bytes moved by transfers",
		},
		[]string{"direction"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records a dispatched request and the status it was answered
// with.
func RecordRequest(kind string, status string, duration time.Duration) {
	requestsTotal.WithLabelValues(kind, status).Inc()
	requestDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordDroppedFrame records a frame dropped for the supplied reason.
func RecordDroppedFrame(reason string) {
	framesDroppedTotal.WithLabelValues(reason).Inc()
}

// RecordGarbage records bytes skipped by the framer.
func RecordGarbage(n uint64) {
	garbageBytesTotal.Add(float64(n))
}

// RecordSync records a sync packet.
func RecordSync() {
	syncsTotal.Inc()
}

// RecordTransfer records a transfer reaching the supplied outcome, e.g.
// "started" or "aborted".
func RecordTransfer(domain string, direction string, outcome string) {
	transfersTotal.WithLabelValues(domain, direction, outcome).Inc()
}

// RecordTransferBytes records payload bytes moved in the supplied direction.
func RecordTransferBytes(direction string, n int) {
	transferBytesTotal.WithLabelValues(direction).Add(float64(n))
}
