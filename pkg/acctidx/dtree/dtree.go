// Package dtree implements the secondary index: a size-balanced binary search
// tree of accounts keyed by discriminator.
//
// Deletes are lazy. A removed entry stays in place as a vacant node so the
// shape of the tree does not change, and a later insert may reuse the slot
// when the new discriminator still respects search order around it. Balance is
// restored by flattening an overweight subtree into its live entries and
// rebuilding it around repeated midpoints, which also reclaims vacant slots.
package dtree

import (
	"github.com/CVDpl/go-acctidx/internal/common"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
)

// Node is one slot of the tree. Size and VacantCount always cover the whole
// subtree rooted at the node, vacant nodes included.
type Node struct {
	account     account.Account
	size        int
	vacantCount int
	vacant      bool
	left        *Node
	right       *Node
}

func newNode(a account.Account) *Node {
	return &Node{account: a, size: 1}
}

func (n *Node) Account() account.Account { return n.account }
func (n *Node) Discriminator() int       { return n.account.Discriminator() }
func (n *Node) Username() string         { return n.account.Username() }
func (n *Node) Size() int                { return n.size }
func (n *Node) VacantCount() int         { return n.vacantCount }
func (n *Node) Vacant() bool             { return n.vacant }
func (n *Node) Left() *Node              { return n.left }
func (n *Node) Right() *Node             { return n.right }

func sizeOf(n *Node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func vacantOf(n *Node) int {
	if n == nil {
		return 0
	}
	return n.vacantCount
}

// recount refreshes size and vacantCount from the children. Children must
// already be up to date.
func (n *Node) recount() {
	n.size = 1 + sizeOf(n.left) + sizeOf(n.right)
	n.vacantCount = vacantOf(n.left) + vacantOf(n.right)
	if n.vacant {
		n.vacantCount++
	}
}

// imbalanced applies the rebuild rule: small subtrees may be skewed freely,
// otherwise neither side may exceed RebuildRatio times the other.
func (n *Node) imbalanced() bool {
	l, r := sizeOf(n.left), sizeOf(n.right)
	if l < common.RebuildMinSubtree && r < common.RebuildMinSubtree {
		return false
	}
	return float64(l) > common.RebuildRatio*float64(r) ||
		float64(r) > common.RebuildRatio*float64(l)
}

// fits reports whether disc can take over this node without breaking order
// against its own subtrees.
func (n *Node) fits(disc int) bool {
	if n.left != nil && disc <= maxDisc(n.left) {
		return false
	}
	if n.right != nil && disc >= minDisc(n.right) {
		return false
	}
	return true
}

func maxDisc(n *Node) int {
	for n.right != nil {
		n = n.right
	}
	return n.Discriminator()
}

func minDisc(n *Node) int {
	for n.left != nil {
		n = n.left
	}
	return n.Discriminator()
}

// RebuildHook observes rebuilds. It receives the username of the rebuilt
// subtree's entries and the number of live entries that were kept.
type RebuildHook func(username string, live int)

// Tree is the discriminator-keyed secondary index. The zero value is an
// empty tree. A Tree is not safe for concurrent use.
type Tree struct {
	root      *Node
	rebuilds  int
	onRebuild RebuildHook
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{}
}

// SetRebuildHook installs fn to be called after every rebuild. nil clears it.
func (t *Tree) SetRebuildHook(fn RebuildHook) {
	t.onRebuild = fn
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node { return t.root }

// Size returns the number of slots, vacant ones included.
func (t *Tree) Size() int { return sizeOf(t.root) }

// VacantCount returns the number of vacant slots.
func (t *Tree) VacantCount() int { return vacantOf(t.root) }

// Rebuilds returns how many subtree rebuilds this tree has performed.
func (t *Tree) Rebuilds() int { return t.rebuilds }

// Username returns the username stored at the root, or "" when empty.
func (t *Tree) Username() string {
	if t.root == nil {
		return ""
	}
	return t.root.Username()
}

// Insert adds a. It fails if the discriminator is out of range or already
// held by a live entry.
func (t *Tree) Insert(a account.Account) bool {
	disc := a.Discriminator()
	if !common.ValidDisc(disc) {
		return false
	}
	if t.Retrieve(disc) != nil {
		return false
	}
	var ok bool
	t.root, ok = t.insert(t.root, a)
	return ok
}

func (t *Tree) insert(n *Node, a account.Account) (*Node, bool) {
	if n == nil {
		return newNode(a), true
	}

	disc := a.Discriminator()
	if n.vacant && n.fits(disc) {
		n.account = a
		n.vacant = false
		n.recount()
		return n, true
	}

	var ok bool
	switch {
	case disc < n.Discriminator():
		n.left, ok = t.insert(n.left, a)
	case disc > n.Discriminator():
		n.right, ok = t.insert(n.right, a)
	default:
		return n, false
	}
	if !ok {
		return n, false
	}

	n.recount()
	if n.imbalanced() {
		return t.rebuild(n), true
	}
	return n, true
}

// Remove marks the entry for disc vacant and returns its account. It fails if
// disc is out of range, absent, or already vacant.
func (t *Tree) Remove(disc int) (account.Account, bool) {
	if !common.ValidDisc(disc) {
		return account.Empty(), false
	}
	return remove(t.root, disc)
}

func remove(n *Node, disc int) (account.Account, bool) {
	if n == nil {
		return account.Empty(), false
	}

	var (
		removed account.Account
		ok      bool
	)
	switch {
	case disc < n.Discriminator():
		removed, ok = remove(n.left, disc)
	case disc > n.Discriminator():
		removed, ok = remove(n.right, disc)
	default:
		if n.vacant {
			return account.Empty(), false
		}
		n.vacant = true
		removed, ok = n.account, true
	}
	if ok {
		n.recount()
	}
	return removed, ok
}

// Retrieve returns the live node for disc, or nil.
func (t *Tree) Retrieve(disc int) *Node {
	if !common.ValidDisc(disc) {
		return nil
	}
	n := t.root
	for n != nil {
		switch {
		case disc < n.Discriminator():
			n = n.left
		case disc > n.Discriminator():
			n = n.right
		default:
			if n.vacant {
				return nil
			}
			return n
		}
	}
	return nil
}

// CountLive returns the number of non-vacant entries.
func (t *Tree) CountLive() int {
	return countLive(t.root)
}

// Len is CountLive.
func (t *Tree) Len() int { return t.CountLive() }

func countLive(n *Node) int {
	if n == nil {
		return 0
	}
	c := countLive(n.left) + countLive(n.right)
	if !n.vacant {
		c++
	}
	return c
}

// Clear drops every entry.
func (t *Tree) Clear() {
	t.root = nil
}

// rebuild replaces the subtree at n with a perfectly balanced one holding
// only its live entries. Live nodes are relinked, vacant nodes are dropped.
func (t *Tree) rebuild(n *Node) *Node {
	live := collectLive(n, make([]*Node, 0, n.size-n.vacantCount))
	root := build(live, 0, len(live)-1)

	t.rebuilds++
	if t.onRebuild != nil {
		t.onRebuild(n.Username(), len(live))
	}
	return root
}

func collectLive(n *Node, out []*Node) []*Node {
	if n == nil {
		return out
	}
	out = collectLive(n.left, out)
	if !n.vacant {
		out = append(out, n)
	}
	return collectLive(n.right, out)
}

func build(nodes []*Node, lo, hi int) *Node {
	if lo > hi {
		return nil
	}
	mid := (lo + hi) / 2
	n := nodes[mid]
	n.left = build(nodes, lo, mid-1)
	n.right = build(nodes, mid+1, hi)
	n.recount()
	return n
}

// Clone returns a deep copy. Counters, vacancy flags and the rebuild hook are
// carried over; no node is shared with t.
func (t *Tree) Clone() *Tree {
	return &Tree{
		root:      cloneNode(t.root),
		rebuilds:  t.rebuilds,
		onRebuild: t.onRebuild,
	}
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		account:     n.account,
		size:        n.size,
		vacantCount: n.vacantCount,
		vacant:      n.vacant,
		left:        cloneNode(n.left),
		right:       cloneNode(n.right),
	}
}
