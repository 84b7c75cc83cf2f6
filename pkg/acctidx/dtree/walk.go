package dtree

import (
	"fmt"

	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
)

// Walk visits every node in discriminator order, vacant ones included, until
// fn returns false.
func (t *Tree) Walk(fn func(n *Node) bool) {
	walk(t.root, fn)
}

func walk(n *Node, fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !walk(n.left, fn) {
		return false
	}
	if !fn(n) {
		return false
	}
	return walk(n.right, fn)
}

// Ascend visits live accounts in discriminator order until fn returns false.
func (t *Tree) Ascend(fn func(a account.Account) bool) {
	t.Walk(func(n *Node) bool {
		if n.vacant {
			return true
		}
		return fn(n.account)
	})
}

// Verify checks search order over all nodes and the size and vacancy counts
// of every subtree.
func (t *Tree) Verify() error {
	_, _, err := verify(t.root, nil, nil)
	return err
}

func verify(n *Node, lo, hi *int) (size, vacant int, err error) {
	if n == nil {
		return 0, 0, nil
	}
	d := n.Discriminator()
	if lo != nil && d <= *lo {
		return 0, 0, fmt.Errorf("disc %d: out of order, want > %d", d, *lo)
	}
	if hi != nil && d >= *hi {
		return 0, 0, fmt.Errorf("disc %d: out of order, want < %d", d, *hi)
	}

	ls, lv, err := verify(n.left, lo, &d)
	if err != nil {
		return 0, 0, err
	}
	rs, rv, err := verify(n.right, &d, hi)
	if err != nil {
		return 0, 0, err
	}

	size = 1 + ls + rs
	vacant = lv + rv
	if n.vacant {
		vacant++
	}
	if n.size != size {
		return 0, 0, fmt.Errorf("disc %d: size %d, want %d", d, n.size, size)
	}
	if n.vacantCount != vacant {
		return 0, 0, fmt.Errorf("disc %d: vacant count %d, want %d", d, n.vacantCount, vacant)
	}
	return size, vacant, nil
}
