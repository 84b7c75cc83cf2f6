// Package ingest loads accounts from comma-separated records of the form
//
//	username,discriminator,nitro,badge,status
//
// A malformed record aborts the load. Records the index refuses (duplicate
// discriminators) are counted and skipped.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utils"
)

// maxLineSize bounds a single record.
const maxLineSize = 1024 * 1024

// Inserter receives parsed accounts.
type Inserter interface {
	Insert(a account.Account) bool
}

// InserterFunc adapts a function to Inserter.
type InserterFunc func(a account.Account) bool

func (f InserterFunc) Insert(a account.Account) bool { return f(a) }

// Result summarizes a load.
type Result struct {
	Records  int    // records parsed
	Inserted int    // records accepted by the index
	Rejected int    // records refused by the index
	Digest   string // BLAKE3 of the input consumed
}

// ParseRecord parses one record. A wrong field count or a non-integer
// discriminator or nitro flag yields common.ErrMalformedRecord; an
// out-of-range discriminator yields common.ErrInvalidDiscriminator.
func ParseRecord(line string) (account.Account, error) {
	if n := strings.Count(line, string(common.RecordDelimiter)); n != common.RecordFields-1 {
		return account.Empty(), fmt.Errorf("%w: want %d fields, got %d", common.ErrMalformedRecord, common.RecordFields, n+1)
	}
	f := strings.Split(line, string(common.RecordDelimiter))

	disc, err := strconv.Atoi(strings.TrimSpace(f[1]))
	if err != nil {
		return account.Empty(), fmt.Errorf("%w: discriminator %q is not an integer", common.ErrMalformedRecord, f[1])
	}
	nitro, err := strconv.Atoi(strings.TrimSpace(f[2]))
	if err != nil {
		return account.Empty(), fmt.Errorf("%w: nitro %q is not an integer", common.ErrMalformedRecord, f[2])
	}
	return account.New(f[0], disc, nitro != 0, f[3], f[4])
}

// Load reads records from r until EOF and inserts each into ins. Blank lines
// are skipped. On error the returned Result covers the records before the
// failing line.
func Load(r io.Reader, ins Inserter) (Result, error) {
	var res Result
	h := utils.NewBLAKE3()

	sc := bufio.NewScanner(io.TeeReader(r, h))
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		a, err := ParseRecord(line)
		if err != nil {
			return res, fmt.Errorf("line %d: %w", lineNo, err)
		}
		res.Records++
		if ins.Insert(a) {
			res.Inserted++
		} else {
			res.Rejected++
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("line %d: %w", lineNo+1, err)
	}

	res.Digest = fmt.Sprintf("%x", h.Sum(nil))
	return res, nil
}
