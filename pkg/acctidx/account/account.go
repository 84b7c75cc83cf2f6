// Package account defines the immutable account value stored by the index.
package account

import (
	"fmt"

	"github.com/CVDpl/go-acctidx/internal/common"
)

// Account is a single account. It is immutable after construction.
// Empty returns a placeholder that fails Valid.
type Account struct {
	username string
	disc     int
	nitro    bool
	badge    string
	status   string
}

// New creates an account, failing with common.ErrInvalidDiscriminator when
// disc is outside [common.MinDisc, common.MaxDisc].
func New(username string, disc int, nitro bool, badge, status string) (Account, error) {
	if !common.ValidDisc(disc) {
		return Account{}, fmt.Errorf("account %q: %w: %d", username, common.ErrInvalidDiscriminator, disc)
	}
	return Account{
		username: username,
		disc:     disc,
		nitro:    nitro,
		badge:    badge,
		status:   status,
	}, nil
}

// MustNew is New for literals known to be valid. It panics on error.
func MustNew(username string, disc int, nitro bool, badge, status string) Account {
	a, err := New(username, disc, nitro, badge, status)
	if err != nil {
		panic(err)
	}
	return a
}

// Empty returns an account with no username and an invalid discriminator.
func Empty() Account {
	return Account{disc: common.InvalidDisc}
}

func (a Account) Username() string  { return a.username }
func (a Account) Discriminator() int { return a.disc }
func (a Account) Nitro() bool        { return a.nitro }
func (a Account) Badge() string      { return a.badge }
func (a Account) Status() string     { return a.status }

// Valid reports whether the discriminator is in range.
func (a Account) Valid() bool { return common.ValidDisc(a.disc) }

// String renders the account in the multi-line listing format.
func (a Account) String() string {
	nitro := 0
	if a.nitro {
		nitro = 1
	}
	return fmt.Sprintf("Account name: %s\n\tDiscriminator: %d\n\tNitro: %d\n\tBadge: %s\n\tStatus: %s",
		a.username, a.disc, nitro, a.badge, a.status)
}
