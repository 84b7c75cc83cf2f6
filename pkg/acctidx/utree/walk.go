package utree

import (
	"fmt"

	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
)

func (t *Tree) walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !t.walk(n.left, fn) {
		return false
	}
	if !fn(n) {
		return false
	}
	return t.walk(n.right, fn)
}

// Walk visits nodes in username order until fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	t.walk(t.root, fn)
}

// Ascend visits every live account, ordered by username then discriminator,
// until fn returns false.
func (t *Tree) Ascend(fn func(a account.Account) bool) {
	more := true
	t.walk(t.root, func(n *Node) bool {
		n.accounts.Ascend(func(a account.Account) bool {
			more = fn(a)
			return more
		})
		return more
	})
}

// Verify checks username order, stored heights, the AVL condition, that every
// node owns a non-empty secondary index filed under its username, and the
// invariants of each secondary index.
func (t *Tree) Verify() error {
	_, err := t.verify(t.root, nil, nil)
	return err
}

func (t *Tree) verify(n *Node, lo, hi *string) (int, error) {
	if n == nil {
		return -1, nil
	}
	u := n.username
	if lo != nil && u <= *lo {
		return 0, fmt.Errorf("user %q: out of order, want > %q", u, *lo)
	}
	if hi != nil && u >= *hi {
		return 0, fmt.Errorf("user %q: out of order, want < %q", u, *hi)
	}

	lh, err := t.verify(n.left, lo, &u)
	if err != nil {
		return 0, err
	}
	rh, err := t.verify(n.right, &u, hi)
	if err != nil {
		return 0, err
	}

	h := 1 + max(lh, rh)
	if n.height != h {
		return 0, fmt.Errorf("user %q: height %d, want %d", u, n.height, h)
	}
	if b := lh - rh; b > 1 || b < -1 {
		return 0, fmt.Errorf("user %q: balance %d", u, b)
	}

	if n.accounts == nil {
		return 0, fmt.Errorf("user %q: no accounts", u)
	}
	if n.accounts.CountLive() == 0 {
		return 0, fmt.Errorf("user %q: no live accounts", u)
	}
	if got := n.accounts.Username(); got != u {
		return 0, fmt.Errorf("user %q: holds accounts of %q", u, got)
	}
	if err := n.accounts.Verify(); err != nil {
		return 0, fmt.Errorf("user %q: %w", u, err)
	}
	return h, nil
}
