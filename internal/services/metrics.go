package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	notificationsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialsync_notifications_written_total",
		Help: "The total number of notifications written",
	}, []string{"type"})

	secondaryWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialsync_secondary_write_failures_total",
		Help: "The total number of swallowed secondary write failures",
	}, []string{"op"})

	feedRecombinations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialsync_feed_recombinations_total",
		Help: "The total number of feed re-merges caused by a chunk update",
	})

	heartbeatsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialsync_presence_heartbeats_total",
		Help: "The total number of presence heartbeats written",
	})

	countersCorrected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialsync_counters_corrected_total",
		Help: "The total number of cached counters overwritten by reconciliation",
	}, []string{"field"})
)
