// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation kinds
const (
	allocationLockDeposit   = "lock_deposit"
	allocationLockCreate    = "lock_create"
	allocationBribe         = "bribe"
	allocationBribeRedirect = "bribe_redirect"
)

var (
	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_emission_claims_total",
			Help: "Total number of compound emission claims",
		},
		[]string{"mode", "status"},
	)

	AllocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_emission_allocations_total",
			Help: "Total number of allocations made by committed distributions",
		},
		[]string{"kind"},
	)

	ConfigUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compound_emission_config_updates_total",
			Help: "Total number of compound configuration updates",
		},
		[]string{"operation", "status"},
	)

	TargetLockRewritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "compound_emission_target_lock_rewrites_total",
			Help: "Total number of target lock id rewrites triggered by lock transfers and merges",
		},
	)

	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compound_emission_batch_size",
			Help:    "Number of claims per keeper batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
		},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func observeAllocations(results []DistributionResult) {
	for _, r := range results {
		for _, l := range r.Locks {
			if l.Created {
				AllocationsTotal.WithLabelValues(allocationLockCreate).Inc()
			} else {
				AllocationsTotal.WithLabelValues(allocationLockDeposit).Inc()
			}
		}
		for _, p := range r.Pools {
			if p.Redirected {
				AllocationsTotal.WithLabelValues(allocationBribeRedirect).Inc()
			} else {
				AllocationsTotal.WithLabelValues(allocationBribe).Inc()
			}
		}
	}
}
