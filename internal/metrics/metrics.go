// Copyright 2024 Google LLC
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

// Package metrics exposes Prometheus counters for the fakefs
// transaction envelope and mount lifecycle, following the teacher's
// own use of prometheus/client_golang for operation-level instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OpsAttempted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fakefs",
			Name:      "ops_attempted_total",
			Help:      "Filesystem operations attempted, by operation name.",
		},
		[]string{"op"},
	)
	OpsCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fakefs",
			Name:      "ops_committed_total",
			Help:      "Filesystem operations whose transaction committed, by operation name.",
		},
		[]string{"op"},
	)
	OpsRolledBack = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fakefs",
			Name:      "ops_rolled_back_total",
			Help:      "Filesystem operations whose transaction rolled back, by operation name.",
		},
		[]string{"op"},
	)
	OpLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fakefs",
			Name:      "op_latency_seconds",
			Help:      "Operation latency in seconds, by operation name.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	Rebuilds = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fakefs",
			Name:      "rebuilds_total",
			Help:      "fakefs_rebuild invocations triggered by a db_inode mismatch.",
		},
	)
	OrphansSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fakefs",
			Name:      "orphans_swept_total",
			Help:      "stats rows deleted across all mount-time orphan sweeps.",
		},
	)
)

// Register adds every collector above to reg. Safe to call once per
// process; the CLI calls it before serving the metrics endpoint.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		OpsAttempted, OpsCommitted, OpsRolledBack, OpLatencySeconds, Rebuilds, OrphansSwept,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
