package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/monitoring"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/render"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utree"
)

const records = `wumpus,1,1,staff,online
wumpus,2,0,,idle
nelly,7,0,early-supporter,dnd
clyde,3,1,,offline
phibi,1234,1,hypesquad,online
wumpus,3,0,,invisible
`

func main() {
	// Optional diagnostics: enable by setting ACCTIDX_DEBUG_ADDR (e.g., ":6060")
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

	fmt.Printf("acctidx Example\n")
	fmt.Printf("===============\n\n")

	idx := acctidx.New(&acctidx.Options{LogLevel: common.LogLevelWarn})

	// Load a record file
	fmt.Println("1. Loading records...")
	dir, err := os.MkdirTemp("", "acctidx-example-*")
	if err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "accounts.csv")
	if err := os.WriteFile(path, []byte(records), 0o644); err != nil {
		log.Fatalf("Failed to write records: %v", err)
	}
	res, err := idx.Load(path, false)
	if err != nil {
		log.Fatalf("Failed to load: %v", err)
	}
	fmt.Printf("   Loaded %d records (%d inserted, %d rejected)\n", res.Records, res.Inserted, res.Rejected)
	fmt.Printf("   Input digest: %s\n", res.Digest)

	// Insert individual accounts
	fmt.Println("\n2. Inserting accounts...")
	for _, a := range []account.Account{
		account.MustNew("nelly", 8, true, "", "online"),
		account.MustNew("nelly", 7, false, "", "online"),
	} {
		if err := idx.Insert(a); err != nil {
			fmt.Printf("   %s#%d: %v\n", a.Username(), a.Discriminator(), err)
			continue
		}
		fmt.Printf("   Inserted %s#%d\n", a.Username(), a.Discriminator())
	}
	if _, err := account.New("nelly", 10000, false, "", ""); err != nil {
		fmt.Printf("   Rejected at construction: %v\n", err)
	}

	// Lookups
	fmt.Println("\n3. Looking up accounts...")
	for _, q := range []struct {
		user string
		disc int
	}{{"phibi", 1234}, {"wumpus", 2}, {"wumpus", 9}} {
		a, err := idx.Lookup(q.user, q.disc)
		switch {
		case errors.Is(err, acctidx.ErrNotFound):
			fmt.Printf("   %s#%d: not found\n", q.user, q.disc)
		case err != nil:
			log.Fatalf("Lookup failed: %v", err)
		default:
			fmt.Printf("   %s#%d: status=%s nitro=%t\n", q.user, q.disc, a.Status(), a.Nitro())
		}
	}

	// Removals tombstone accounts; the username goes once none is live
	fmt.Println("\n4. Removing accounts...")
	for _, disc := range []int{1, 2, 3} {
		if _, err := idx.Remove("wumpus", disc); err != nil {
			log.Fatalf("Remove failed: %v", err)
		}
		fmt.Printf("   Removed wumpus#%d, %d left under wumpus\n", disc, idx.Count("wumpus"))
	}
	fmt.Printf("   Usernames indexed: %d\n", idx.Users())

	// Structure
	fmt.Println("\n5. Index structure:")
	fmt.Printf("   %s\n", idx.Dump())
	idx.Tree(func(t *utree.Tree) {
		for _, line := range strings.Split(strings.TrimRight(render.UserTree(t, true).String(), "\n"), "\n") {
			fmt.Printf("   %s\n", line)
		}
	})

	// Clone and compare
	fmt.Println("\n6. Cloning...")
	cp := idx.Clone()
	fmt.Printf("   Fingerprints match: %t\n", cp.Fingerprint() == idx.Fingerprint())
	_ = cp.Insert(account.MustNew("zed", 42, false, "", ""))
	fmt.Printf("   After mutating the clone: %t\n", cp.Fingerprint() == idx.Fingerprint())

	if err := idx.Verify(); err != nil {
		log.Fatalf("Verify failed: %v", err)
	}

	// Accounts
	fmt.Println("\n7. All accounts:")
	if err := idx.Print(os.Stdout); err != nil {
		log.Fatalf("Print failed: %v", err)
	}

	s := idx.Stats()
	fmt.Println("\n8. Statistics:")
	fmt.Printf("   Users: %d  Accounts: %d  Vacant: %d  Height: %d\n", s.Users, s.Accounts, s.Vacant, s.Height)
	fmt.Printf("   Inserts: %d (rejected %d)  Removes: %d  Lookups: %d\n",
		s.TotalInserts, s.RejectedInserts, s.TotalRemoves, s.TotalLookups)
	fmt.Printf("   Rebuilds: %d  Rotations: %d  Splices: %d\n", s.Rebuilds, s.Rotations, s.Splices)

	fmt.Println("\nExample completed successfully!")
}
