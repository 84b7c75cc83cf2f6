package acctidx

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a point-in-time view of index activity and shape.
type Stats struct {
	// Shape
	Users    int // usernames in the primary index
	Accounts int // live accounts across all usernames
	Vacant   int // tombstoned slots awaiting reuse or rebuild
	Height   int // primary index height, -1 when empty

	// Operation counts
	TotalInserts     uint64
	RejectedInserts  uint64
	TotalRemoves     uint64
	MissedRemoves    uint64
	TotalLookups     uint64
	Rebuilds         uint64
	RebuiltEntries   uint64
	Rotations        uint64
	Splices          uint64
	Loads            uint64
	LoadLatencyP50   time.Duration
	LoadLatencyMax   time.Duration
	OverallOpsPerSec float64
	UptimeSeconds    float64
}

// StatsCollector collects operation counters for an Index.
type StatsCollector struct {
	mu sync.Mutex

	inserts         uint64
	rejectedInserts uint64
	removes         uint64
	missedRemoves   uint64
	lookups         uint64
	rebuilds        uint64
	rebuiltEntries  uint64
	rotations       uint64
	splices         uint64
	loads           uint64

	latencies    []time.Duration
	maxLatencies int

	startTime time.Time
}

// NewStatsCollector creates a new statistics collector.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		maxLatencies: 1000,
		latencies:    make([]time.Duration, 0, 64),
		startTime:    time.Now(),
	}
}

// RecordInsert records an insert attempt.
func (sc *StatsCollector) RecordInsert(ok bool) {
	atomic.AddUint64(&sc.inserts, 1)
	if !ok {
		atomic.AddUint64(&sc.rejectedInserts, 1)
	}
}

// RecordRemove records a remove attempt.
func (sc *StatsCollector) RecordRemove(ok bool) {
	atomic.AddUint64(&sc.removes, 1)
	if !ok {
		atomic.AddUint64(&sc.missedRemoves, 1)
	}
}

// RecordLookup records a lookup.
func (sc *StatsCollector) RecordLookup() { atomic.AddUint64(&sc.lookups, 1) }

// RecordRebuild records a secondary index rebuild keeping live entries.
func (sc *StatsCollector) RecordRebuild(live int) {
	atomic.AddUint64(&sc.rebuilds, 1)
	atomic.AddUint64(&sc.rebuiltEntries, uint64(live))
}

// RecordRotation records a primary index rotation.
func (sc *StatsCollector) RecordRotation() { atomic.AddUint64(&sc.rotations, 1) }

// RecordSplice records a primary index node being spliced out.
func (sc *StatsCollector) RecordSplice() { atomic.AddUint64(&sc.splices, 1) }

// RecordLoad records a bulk load and its duration.
func (sc *StatsCollector) RecordLoad(d time.Duration) {
	atomic.AddUint64(&sc.loads, 1)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.latencies = append(sc.latencies, d)
	if len(sc.latencies) > sc.maxLatencies {
		copy(sc.latencies, sc.latencies[len(sc.latencies)-sc.maxLatencies:])
		sc.latencies = sc.latencies[:sc.maxLatencies]
	}
}

// Snapshot returns the counters. Shape fields are left for the caller.
func (sc *StatsCollector) Snapshot() Stats {
	p50, pmax := sc.loadPercentiles()

	elapsed := time.Since(sc.startTime).Seconds()
	if elapsed < 1.0 {
		elapsed = 1.0
	}
	inserts := atomic.LoadUint64(&sc.inserts)
	removes := atomic.LoadUint64(&sc.removes)
	lookups := atomic.LoadUint64(&sc.lookups)

	return Stats{
		TotalInserts:     inserts,
		RejectedInserts:  atomic.LoadUint64(&sc.rejectedInserts),
		TotalRemoves:     removes,
		MissedRemoves:    atomic.LoadUint64(&sc.missedRemoves),
		TotalLookups:     lookups,
		Rebuilds:         atomic.LoadUint64(&sc.rebuilds),
		RebuiltEntries:   atomic.LoadUint64(&sc.rebuiltEntries),
		Rotations:        atomic.LoadUint64(&sc.rotations),
		Splices:          atomic.LoadUint64(&sc.splices),
		Loads:            atomic.LoadUint64(&sc.loads),
		LoadLatencyP50:   p50,
		LoadLatencyMax:   pmax,
		OverallOpsPerSec: float64(inserts+removes+lookups) / elapsed,
		UptimeSeconds:    time.Since(sc.startTime).Seconds(),
	}
}

func (sc *StatsCollector) loadPercentiles() (p50, pmax time.Duration) {
	sc.mu.Lock()
	sorted := make([]time.Duration, len(sc.latencies))
	copy(sorted, sc.latencies)
	sc.mu.Unlock()

	if len(sorted) == 0 {
		return 0, 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[len(sorted)*50/100], sorted[len(sorted)-1]
}
