// Command acctidx loads account record files into an in-memory index and
// inspects the result.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/urfave/cli/v2"

	"github.com/CVDpl/go-acctidx/pkg/acctidx"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/monitoring"
)

func main() {
	if err := run(os.Args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var indexFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "log verbosity: debug, info, warn or error",
		Value:   "warn",
		EnvVars: []string{"ACCTIDX_LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "debug-addr",
		Usage:   "serve pprof and /metrics on this address while running",
		EnvVars: []string{"ACCTIDX_DEBUG_ADDR"},
	},
}

const debugServerKey = "debug-server"

func run(args []string, w io.Writer) error {
	app := cli.App{
		Name:      "acctidx",
		Usage:     "two-level account index tool",
		Version:   acctidx.Version,
		Writer:    w,
		Flags:     indexFlags,
		Before:    startDebug,
		After:     stopDebug,
		Metadata:  map[string]interface{}{},
		ArgsUsage: "FILE...",
	}
	app.Commands = []*cli.Command{
		cmdLoad,
		cmdPrint,
		cmdDump,
		cmdTree,
		cmdLookup,
		cmdVerify,
		cmdFingerprint,
	}
	return app.Run(args)
}

func startDebug(cctx *cli.Context) error {
	addr := cctx.String("debug-addr")
	if addr == "" {
		return nil
	}
	logger, err := newLogger(cctx)
	if err != nil {
		return err
	}
	srv, err := monitoring.StartDebugServer(addr, logger)
	if err != nil {
		return fmt.Errorf("debug server: %w", err)
	}
	cctx.App.Metadata[debugServerKey] = srv
	return nil
}

func stopDebug(cctx *cli.Context) error {
	srv, ok := cctx.App.Metadata[debugServerKey].(*http.Server)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return monitoring.StopDebugServer(ctx, srv)
}

func newLogger(cctx *cli.Context) (*acctidx.DefaultLogger, error) {
	level, err := acctidx.ParseLogLevel(cctx.String("log-level"))
	if err != nil {
		return nil, err
	}
	return acctidx.NewWriterLogger(cctx.App.ErrWriter, level), nil
}

// openIndex builds an index from every FILE argument in order. "-" reads
// records from stdin.
func openIndex(cctx *cli.Context) (*acctidx.Index, error) {
	if cctx.NArg() == 0 {
		return nil, fmt.Errorf("at least one record file is required")
	}
	logger, err := newLogger(cctx)
	if err != nil {
		return nil, err
	}
	idx := acctidx.New(&acctidx.Options{Logger: logger})

	for i, path := range cctx.Args().Slice() {
		appendMode := i > 0
		if path == "-" {
			_, err = idx.LoadReader(cctx.App.Reader, appendMode)
		} else {
			_, err = idx.Load(path, appendMode)
		}
		if err != nil {
			return nil, err
		}
	}
	return idx, nil
}
