package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CVDpl/go-acctidx/internal/common"
)

func TestNewValidatesDiscriminator(t *testing.T) {
	tests := []struct {
		name    string
		disc    int
		wantErr bool
	}{
		{"lower bound", common.MinDisc, false},
		{"upper bound", common.MaxDisc, false},
		{"middle", 1234, false},
		{"below range", -1, true},
		{"above range", common.MaxDisc + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New("user", tt.disc, false, "", "")
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidDiscriminator)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.disc, a.Discriminator())
			assert.True(t, a.Valid())
		})
	}
}

func TestMustNewPanics(t *testing.T) {
	assert.Panics(t, func() { MustNew("x", 10000, false, "", "") })
	assert.NotPanics(t, func() { MustNew("x", 0, false, "", "") })
}

func TestEmpty(t *testing.T) {
	a := Empty()
	assert.False(t, a.Valid())
	assert.Equal(t, common.InvalidDisc, a.Discriminator())
	assert.Empty(t, a.Username())
}

func TestString(t *testing.T) {
	a := MustNew("wumpus", 42, true, "hypesquad", "online")
	want := "Account name: wumpus\n\tDiscriminator: 42\n\tNitro: 1\n\tBadge: hypesquad\n\tStatus: online"
	assert.Equal(t, want, a.String())
	assert.Equal(t, "wumpus", a.Username())
	assert.True(t, a.Nitro())
	assert.Equal(t, "hypesquad", a.Badge())
	assert.Equal(t, "online", a.Status())
}
