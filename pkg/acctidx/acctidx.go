// Package acctidx is an in-memory two-level account index. Usernames are kept
// in a height-balanced primary index; each username owns a size-balanced
// secondary index of accounts keyed by discriminator.
//
// Index wraps both levels behind a read/write lock and reports activity
// through a Logger, in-process Stats and Prometheus counters.
package acctidx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/ingest"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/render"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utree"
)

// Errors returned by Index operations. Match them with errors.Is.
var (
	ErrInvalidDiscriminator = common.ErrInvalidDiscriminator
	ErrDuplicateKey         = common.ErrDuplicateKey
	ErrNotFound             = common.ErrNotFound
	ErrMalformedRecord      = common.ErrMalformedRecord
)

// Options configures an Index.
type Options struct {
	// Logger receives operational logs. When nil a DefaultLogger at LogLevel
	// writing to stderr is used.
	Logger common.Logger

	// LogLevel applies only when Logger is nil.
	LogLevel common.LogLevel

	// DisableMetrics stops updates to the process-wide Prometheus counters.
	DisableMetrics bool
}

// DefaultOptions returns default index options.
func DefaultOptions() *Options {
	return &Options{
		Logger:         NewDefaultLogger(),
		LogLevel:       common.LogLevelInfo,
		DisableMetrics: false,
	}
}

// Index is a two-level account index safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	tree   *utree.Tree
	opts   Options
	logger common.Logger
	stats  *StatsCollector
}

// New creates an empty index. A nil opts means DefaultOptions.
func New(opts *Options) *Index {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Logger == nil {
		o.Logger = NewDefaultLoggerWithLevel(o.LogLevel)
	}
	idx := &Index{
		tree:   utree.New(),
		opts:   o,
		logger: o.Logger,
		stats:  NewStatsCollector(),
	}
	idx.tree.SetHooks(idx.hooks())
	return idx
}

func (idx *Index) hooks() utree.Hooks {
	return utree.Hooks{
		OnRebuild: func(username string, live int) {
			idx.stats.RecordRebuild(live)
			if !idx.opts.DisableMetrics {
				rebuildsTotal.Inc()
				rebuiltEntriesTotal.Add(float64(live))
			}
			idx.logger.Debug("secondary index rebuilt", "username", username, "live", live)
		},
		OnRotate: func(kind string) {
			idx.stats.RecordRotation()
			if !idx.opts.DisableMetrics {
				rotationsTotal.WithLabelValues(kind).Inc()
			}
		},
		OnSplice: func(username, kind string) {
			idx.stats.RecordSplice()
			if !idx.opts.DisableMetrics {
				splicesTotal.WithLabelValues(kind).Inc()
			}
			idx.logger.Debug("username spliced out", "username", username, "case", kind)
		},
	}
}

func (idx *Index) countInsert(result string) {
	idx.stats.RecordInsert(result == resultOK)
	if !idx.opts.DisableMetrics {
		insertsTotal.WithLabelValues(result).Inc()
	}
}

func (idx *Index) countRemove(result string) {
	idx.stats.RecordRemove(result == resultOK)
	if !idx.opts.DisableMetrics {
		removesTotal.WithLabelValues(result).Inc()
	}
}

func (idx *Index) countLookup(result string) {
	idx.stats.RecordLookup()
	if !idx.opts.DisableMetrics {
		lookupsTotal.WithLabelValues(result).Inc()
	}
}

// insertLocked inserts a and reports whether it was accepted. Callers hold mu.
func (idx *Index) insertLocked(a account.Account) bool {
	if !a.Valid() {
		idx.countInsert(resultInvalid)
		return false
	}
	if !idx.tree.Insert(a) {
		idx.countInsert(resultDuplicate)
		return false
	}
	idx.countInsert(resultOK)
	return true
}

// Insert adds a. It fails with ErrInvalidDiscriminator when a carries a
// discriminator outside 0..9999 and with ErrDuplicateKey when the
// discriminator is already live under a's username.
func (idx *Index) Insert(a account.Account) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !a.Valid() {
		idx.countInsert(resultInvalid)
		return fmt.Errorf("insert %s#%d: %w", a.Username(), a.Discriminator(), ErrInvalidDiscriminator)
	}
	if !idx.insertLocked(a) {
		return fmt.Errorf("insert %s#%d: %w", a.Username(), a.Discriminator(), ErrDuplicateKey)
	}
	return nil
}

// Remove tombstones the account (username, disc) and returns it. The username
// leaves the index once its last live account is removed.
func (idx *Index) Remove(username string, disc int) (account.Account, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !common.ValidDisc(disc) {
		idx.countRemove(resultInvalid)
		return account.Empty(), fmt.Errorf("remove %s#%d: %w", username, disc, ErrInvalidDiscriminator)
	}
	a, ok := idx.tree.RemoveUser(username, disc)
	if !ok {
		idx.countRemove(resultNotFound)
		return account.Empty(), fmt.Errorf("remove %s#%d: %w", username, disc, ErrNotFound)
	}
	idx.countRemove(resultOK)
	return a, nil
}

// Lookup returns the live account (username, disc).
func (idx *Index) Lookup(username string, disc int) (account.Account, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := idx.tree.RetrieveUser(username, disc)
	if n == nil || n.Vacant() {
		idx.countLookup(resultNotFound)
		return account.Empty(), fmt.Errorf("lookup %s#%d: %w", username, disc, ErrNotFound)
	}
	idx.countLookup(resultOK)
	return n.Account(), nil
}

// Count returns the number of live accounts under username.
func (idx *Index) Count(username string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.NumUsers(username)
}

// Users returns the number of usernames in the index.
func (idx *Index) Users() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Len()
}

// Load ingests the record file at path. Unless appendMode is set the index
// is cleared first. A malformed record stops the load; records before it
// stay in the index.
func (idx *Index) Load(path string, appendMode bool) (ingest.Result, error) {
	return idx.load(path, appendMode, func(ins ingest.Inserter) (ingest.Result, error) {
		return ingest.LoadFile(path, ins)
	})
}

// LoadReader is Load for records read from r.
func (idx *Index) LoadReader(r io.Reader, appendMode bool) (ingest.Result, error) {
	return idx.load("-", appendMode, func(ins ingest.Inserter) (ingest.Result, error) {
		return ingest.Load(r, ins)
	})
}

func (idx *Index) load(source string, appendMode bool, fn func(ingest.Inserter) (ingest.Result, error)) (ingest.Result, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if !appendMode {
		idx.tree.Clear()
	}

	start := time.Now()
	res, err := fn(ingest.InserterFunc(idx.insertLocked))
	elapsed := time.Since(start)

	idx.stats.RecordLoad(elapsed)
	if !idx.opts.DisableMetrics {
		loadDuration.Observe(elapsed.Seconds())
	}
	LogLatency(idx.logger, "load", start, "source", source)

	if err != nil {
		LogError(idx.logger, "load failed", err, "source", source, "inserted", res.Inserted)
		return res, err
	}
	idx.logger.Info("accounts loaded",
		"source", source,
		"records", res.Records,
		"inserted", res.Inserted,
		"rejected", res.Rejected,
		"users", idx.tree.Len(),
		"digest", res.Digest)
	return res, nil
}

// Clone returns an independent deep copy sharing the options but with fresh
// statistics.
func (idx *Index) Clone() *Index {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	cp := &Index{
		tree:   idx.tree.Clone(),
		opts:   idx.opts,
		logger: idx.logger,
		stats:  NewStatsCollector(),
	}
	cp.tree.SetHooks(cp.hooks())
	return cp
}

// Clear removes every account.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.tree.Clear()
}

// Dump renders the primary index in parenthesized form.
func (idx *Index) Dump() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return render.DumpUsers(idx.tree)
}

// DumpAccounts renders the secondary index of username.
func (idx *Index) DumpAccounts(username string) (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := idx.tree.Retrieve(username)
	if n == nil {
		return "", fmt.Errorf("dump %s: %w", username, ErrNotFound)
	}
	return render.DumpAccounts(n.Accounts()), nil
}

// Print writes every live account ordered by username, then discriminator.
// A nil w means stdout.
func (idx *Index) Print(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return render.PrintUsers(w, idx.tree)
}

// Fingerprint returns the BLAKE3 fingerprint of the full two-level structure.
func (idx *Index) Fingerprint() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return render.Fingerprint(idx.tree)
}

// Verify checks every structural invariant of both index levels.
func (idx *Index) Verify() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.tree.Verify()
}

// Tree calls fn with the primary index under the read lock. fn must not
// modify the tree or retain it after returning.
func (idx *Index) Tree(fn func(t *utree.Tree)) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	fn(idx.tree)
}

// Stats returns activity counters together with the current shape.
func (idx *Index) Stats() Stats {
	s := idx.stats.Snapshot()

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	s.Height = idx.tree.Height()
	idx.tree.Walk(func(n *utree.Node) bool {
		s.Users++
		s.Accounts += n.Accounts().CountLive()
		s.Vacant += n.Accounts().VacantCount()
		return true
	})
	return s
}
