package acctidx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var insertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acctidx_inserts_total",
	Help: "Number of account inserts by result",
}, []string{"result"})

var removesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acctidx_removes_total",
	Help: "Number of account removals by result",
}, []string{"result"})

var lookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acctidx_lookups_total",
	Help: "Number of account lookups by result",
}, []string{"result"})

var rebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "acctidx_rebuilds_total",
	Help: "Number of secondary index rebuilds",
})

var rebuiltEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "acctidx_rebuilt_entries_total",
	Help: "Number of live accounts relinked by secondary index rebuilds",
})

var rotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acctidx_rotations_total",
	Help: "Number of primary index rotations by kind",
}, []string{"kind"})

var splicesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "acctidx_splices_total",
	Help: "Number of usernames spliced out of the primary index by case",
}, []string{"case"})

var loadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "acctidx_load_duration_seconds",
	Help:    "Duration of bulk loads",
	Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
})

const (
	resultOK        = "ok"
	resultInvalid   = "invalid"
	resultDuplicate = "duplicate"
	resultNotFound  = "not_found"
)
