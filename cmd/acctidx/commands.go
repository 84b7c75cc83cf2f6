package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/CVDpl/go-acctidx/pkg/acctidx"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/render"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utree"
)

var cmdLoad = &cli.Command{
	Name:      "load",
	Usage:     "load record files and report index statistics",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print statistics as JSON",
		},
	},
	Action: runLoad,
}

func runLoad(cctx *cli.Context) error {
	idx, err := openIndex(cctx)
	if err != nil {
		return err
	}
	s := idx.Stats()
	w := cctx.App.Writer

	if cctx.Bool("json") {
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(b))
		return nil
	}
	fmt.Fprintf(w, "users:     %d\n", s.Users)
	fmt.Fprintf(w, "accounts:  %d\n", s.Accounts)
	fmt.Fprintf(w, "vacant:    %d\n", s.Vacant)
	fmt.Fprintf(w, "height:    %d\n", s.Height)
	fmt.Fprintf(w, "inserted:  %d\n", s.TotalInserts-s.RejectedInserts)
	fmt.Fprintf(w, "rejected:  %d\n", s.RejectedInserts)
	fmt.Fprintf(w, "rebuilds:  %d\n", s.Rebuilds)
	fmt.Fprintf(w, "rotations: %d\n", s.Rotations)
	return nil
}

var cmdPrint = &cli.Command{
	Name:      "print",
	Usage:     "print every live account ordered by username and discriminator",
	ArgsUsage: "FILE...",
	Action: func(cctx *cli.Context) error {
		idx, err := openIndex(cctx)
		if err != nil {
			return err
		}
		return idx.Print(cctx.App.Writer)
	},
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "user",
		Usage: "restrict output to the accounts of one username",
	}
}

var cmdDump = &cli.Command{
	Name:      "dump",
	Usage:     "print the parenthesized structure of the index",
	ArgsUsage: "FILE...",
	Flags:     []cli.Flag{userFlag()},
	Action:    runDump,
}

func runDump(cctx *cli.Context) error {
	idx, err := openIndex(cctx)
	if err != nil {
		return err
	}
	if user := cctx.String("user"); user != "" {
		out, err := idx.DumpAccounts(user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, out)
		return nil
	}
	fmt.Fprintln(cctx.App.Writer, idx.Dump())
	return nil
}

var cmdTree = &cli.Command{
	Name:      "tree",
	Usage:     "draw the index as a tree",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		userFlag(),
		&cli.BoolFlag{
			Name:  "accounts",
			Usage: "draw each username's accounts under it",
		},
	},
	Action: runTree,
}

func runTree(cctx *cli.Context) error {
	idx, err := openIndex(cctx)
	if err != nil {
		return err
	}
	user := cctx.String("user")

	var out string
	idx.Tree(func(t *utree.Tree) {
		if user == "" {
			out = render.UserTree(t, cctx.Bool("accounts")).String()
			return
		}
		if n := t.Retrieve(user); n != nil {
			out = render.AccountTree(n.Accounts()).String()
		}
	})
	if out == "" {
		return fmt.Errorf("user %q: %w", user, acctidx.ErrNotFound)
	}
	fmt.Fprint(cctx.App.Writer, out)
	return nil
}

var cmdLookup = &cli.Command{
	Name:      "lookup",
	Usage:     "show one account",
	ArgsUsage: "FILE...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "user",
			Usage:    "username",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "disc",
			Usage:    "discriminator",
			Required: true,
		},
	},
	Action: func(cctx *cli.Context) error {
		idx, err := openIndex(cctx)
		if err != nil {
			return err
		}
		a, err := idx.Lookup(cctx.String("user"), cctx.Int("disc"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, a.String())
		return nil
	},
}

var cmdVerify = &cli.Command{
	Name:      "verify",
	Usage:     "check the structural invariants of the loaded index",
	ArgsUsage: "FILE...",
	Action: func(cctx *cli.Context) error {
		idx, err := openIndex(cctx)
		if err != nil {
			return err
		}
		if err := idx.Verify(); err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		fmt.Fprintln(cctx.App.Writer, "OK")
		return nil
	},
}

var cmdFingerprint = &cli.Command{
	Name:      "fingerprint",
	Usage:     "print the BLAKE3 fingerprint of the loaded index structure",
	ArgsUsage: "FILE...",
	Action: func(cctx *cli.Context) error {
		idx, err := openIndex(cctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cctx.App.Writer, idx.Fingerprint())
		return nil
	},
}
