package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/monitoring"
)

func main() {
	var (
		numUsers      = flag.Int("users", 50_000, "Number of distinct usernames")
		perUser       = flag.Int("per_user", 20, "Maximum accounts per username")
		removeRatio   = flag.Float64("remove_ratio", 0.3, "Fraction of accounts removed after loading")
		progressEvery = flag.Int("progress_every", 100_000, "Print progress every N records")
		benchWorkers  = flag.Int("lookup_workers", runtime.NumCPU(), "Parallel lookup workers")
		benchDuration = flag.Duration("lookup_duration", 3*time.Second, "Parallel lookup benchmark duration")
		seed          = flag.Int64("seed", time.Now().UnixNano(), "RNG seed")
		keepFile      = flag.Bool("keep", false, "Keep the generated record file")
	)
	flag.Parse()

	if *perUser < 1 || *perUser > common.MaxDisc+1 {
		fmt.Printf("-per_user must be between 1 and %d\n", common.MaxDisc+1)
		os.Exit(2)
	}

	// Optional diagnostics: enable by env ACCTIDX_DEBUG_ADDR (e.g., ":6060")
	if addr := os.Getenv("ACCTIDX_DEBUG_ADDR"); addr != "" {
		srv, err := monitoring.StartDebugServer(addr, nil)
		if err == nil {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				_ = monitoring.StopDebugServer(ctx, srv)
				cancel()
			}()
			fmt.Printf("pprof and /metrics listening on %s\n", srv.Addr)
		} else {
			fmt.Printf("failed to start debug server on %s: %v\n", addr, err)
		}
	}

	rnd := rand.New(rand.NewSource(*seed))
	fmt.Printf("Seed: %d\n", *seed)

	// Generate a record file
	path := filepath.Join(os.TempDir(), fmt.Sprintf("acctidx-large-%d.csv", time.Now().Unix()))
	start := time.Now()
	written, err := writeRecords(path, *numUsers, *perUser, *progressEvery, rnd)
	if err != nil {
		fmt.Printf("Failed to write records: %v\n", err)
		return
	}
	if !*keepFile {
		defer os.Remove(path)
	}
	fmt.Printf("Generated %d records in %v (%s)\n", written, time.Since(start), path)

	// Load
	idx := acctidx.New(&acctidx.Options{LogLevel: common.LogLevelWarn})
	memBefore := readMem()
	start = time.Now()
	res, err := idx.Load(path, false)
	if err != nil {
		fmt.Printf("Load failed: %v\n", err)
		return
	}
	loadTime := time.Since(start)
	memAfter := readMem()
	fmt.Printf("Loaded %d records in %v (%.0f rec/s), %d rejected as duplicates\n",
		res.Records, loadTime, float64(res.Records)/loadTime.Seconds(), res.Rejected)
	fmt.Printf("Heap growth: %s\n", formatBytes(int64(memAfter.HeapAlloc)-int64(memBefore.HeapAlloc)))

	// Remove a random share of accounts
	start = time.Now()
	removed := 0
	for i := 0; i < int(float64(res.Inserted)*(*removeRatio)); i++ {
		if _, err := idx.Remove(username(rnd.Intn(*numUsers)), rnd.Intn(*perUser)); err == nil {
			removed++
		}
	}
	fmt.Printf("Removed %d accounts in %v\n", removed, time.Since(start))

	start = time.Now()
	if err := idx.Verify(); err != nil {
		fmt.Printf("Verify failed: %v\n", err)
		return
	}
	fmt.Printf("Verified structure in %v\n", time.Since(start))

	// Parallel lookups
	var (
		lookups atomic.Int64
		hits    atomic.Int64
		wg      sync.WaitGroup
	)
	deadline := time.Now().Add(*benchDuration)
	for w := 0; w < *benchWorkers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for time.Now().Before(deadline) {
				if _, err := idx.Lookup(username(r.Intn(*numUsers)), r.Intn(*perUser)); err == nil {
					hits.Add(1)
				}
				lookups.Add(1)
			}
		}(*seed + int64(w))
	}
	wg.Wait()
	fmt.Printf("Lookups: %d by %d workers (%.0f/s), hit rate %.1f%%\n",
		lookups.Load(), *benchWorkers, float64(lookups.Load())/benchDuration.Seconds(),
		100*float64(hits.Load())/float64(max(lookups.Load(), 1)))

	s := idx.Stats()
	fmt.Println("\nIndex statistics:")
	fmt.Printf("  Users:      %d\n", s.Users)
	fmt.Printf("  Accounts:   %d\n", s.Accounts)
	fmt.Printf("  Vacant:     %d\n", s.Vacant)
	fmt.Printf("  Height:     %d\n", s.Height)
	fmt.Printf("  Rebuilds:   %d (%d entries relinked)\n", s.Rebuilds, s.RebuiltEntries)
	fmt.Printf("  Rotations:  %d\n", s.Rotations)
	fmt.Printf("  Splices:    %d\n", s.Splices)
	fmt.Printf("  Structure:  %s\n", idx.Fingerprint())
}

func username(i int) string {
	return fmt.Sprintf("user%07d", i)
}

// writeRecords writes up to perUser accounts for each of numUsers usernames
// in random order, with some discriminators repeated.
func writeRecords(path string, numUsers, perUser, progressEvery int, rnd *rand.Rand) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	bw := bufio.NewWriterSize(f, 1<<20)

	statuses := []string{"online", "idle", "dnd", "offline", "invisible"}
	badges := []string{"", "", "", "staff", "partner", "hypesquad", "early-supporter"}

	n := 0
	for _, u := range rnd.Perm(numUsers) {
		for j := rnd.Intn(perUser) + 1; j > 0; j-- {
			a := account.MustNew(username(u), rnd.Intn(perUser), rnd.Intn(4) == 0,
				badges[rnd.Intn(len(badges))], statuses[rnd.Intn(len(statuses))])
			nitro := 0
			if a.Nitro() {
				nitro = 1
			}
			if _, err := fmt.Fprintf(bw, "%s,%d,%d,%s,%s\n",
				a.Username(), a.Discriminator(), nitro, a.Badge(), a.Status()); err != nil {
				return n, err
			}
			n++
			if progressEvery > 0 && n%progressEvery == 0 {
				fmt.Printf("  ... %d records\n", n)
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return n, err
	}
	return n, f.Sync()
}

func readMem() runtime.MemStats {
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m
}

func formatBytes(bytes int64) string {
	const unit = 1024
	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}
	if bytes < unit {
		return fmt.Sprintf("%s%d B", sign, bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%s%.1f %cB", sign, float64(bytes)/float64(div), "KMGTPE"[exp])
}
