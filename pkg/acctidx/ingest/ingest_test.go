package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utils"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utree"
)

const sample = "alice,1,1,staff,online\n" +
	"bob,42,0,,idle\n" +
	"alice,7,0,early,dnd\n" +
	"alice,1,0,dup,offline\n"

func TestParseRecord(t *testing.T) {
	a, err := ParseRecord("wumpus,1234,1,hypesquad,online")
	require.NoError(t, err)
	assert.Equal(t, "wumpus", a.Username())
	assert.Equal(t, 1234, a.Discriminator())
	assert.True(t, a.Nitro())
	assert.Equal(t, "hypesquad", a.Badge())
	assert.Equal(t, "online", a.Status())

	a, err = ParseRecord("x, 7 ,0,,")
	require.NoError(t, err)
	assert.Equal(t, 7, a.Discriminator())
	assert.False(t, a.Nitro())
}

func TestParseRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"too few fields", "a,1,0,badge", common.ErrMalformedRecord},
		{"too many fields", "a,1,0,badge,status,extra", common.ErrMalformedRecord},
		{"non-integer discriminator", "a,one,0,b,s", common.ErrMalformedRecord},
		{"non-integer nitro", "a,1,yes,b,s", common.ErrMalformedRecord},
		{"discriminator out of range", "a,10000,0,b,s", common.ErrInvalidDiscriminator},
		{"negative discriminator", "a,-3,0,b,s", common.ErrInvalidDiscriminator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.line)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	tree := utree.New()
	res, err := Load(strings.NewReader(sample), tree)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Records)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, utils.ComputeBLAKE3([]byte(sample)), res.Digest)

	assert.Equal(t, 2, tree.NumUsers("alice"))
	assert.Equal(t, 1, tree.NumUsers("bob"))
	assert.Equal(t, "staff", tree.RetrieveUser("alice", 1).Account().Badge())
}

func TestLoadSkipsBlankLinesAndCR(t *testing.T) {
	var got []string
	ins := InserterFunc(func(a account.Account) bool {
		got = append(got, a.Status())
		return true
	})
	res, err := Load(strings.NewReader("a,1,0,b,s1\r\n\r\nb,2,0,b,s2\r\n"), ins)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, []string{"s1", "s2"}, got)
}

func TestLoadAbortsOnMalformedRecord(t *testing.T) {
	tree := utree.New()
	res, err := Load(strings.NewReader("a,1,0,b,s\nbroken line\nc,3,0,b,s\n"), tree)
	require.ErrorIs(t, err, common.ErrMalformedRecord)
	assert.Contains(t, err.Error(), "line 2")
	assert.Equal(t, 1, res.Inserted)
	assert.Nil(t, tree.Retrieve("c"), "records after the failure are not loaded")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	tree := utree.New()
	res, err := LoadFile(path, tree)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Inserted)
	assert.Equal(t, utils.ComputeBLAKE3([]byte(sample)), res.Digest)
	require.NoError(t, tree.Verify())
}

func TestLoadFileEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	res, err := LoadFile(empty, utree.New())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Records)

	_, err = LoadFile(filepath.Join(dir, "missing.csv"), utree.New())
	assert.Error(t, err)

	_, err = LoadFile(dir, utree.New())
	assert.Error(t, err)
}

func TestLoadFileMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,1,0,b,s\nb;2;0;b;s\n"), 0o644))

	_, err := LoadFile(path, utree.New())
	require.ErrorIs(t, err, common.ErrMalformedRecord)
	assert.Contains(t, err.Error(), path)
}
