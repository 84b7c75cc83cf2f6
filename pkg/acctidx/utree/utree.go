// Package utree implements the primary index: an AVL tree keyed by username
// where every node owns the secondary index holding that username's accounts.
package utree

import (
	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/dtree"
)

// Node holds one username. Height is -1 for an absent node and 0 for a leaf.
type Node struct {
	username string
	height   int
	accounts *dtree.Tree
	left     *Node
	right    *Node
}

func (n *Node) Username() string { return n.username }
func (n *Node) Height() int      { return n.height }
func (n *Node) Left() *Node      { return n.left }
func (n *Node) Right() *Node     { return n.right }

// Accounts returns the secondary index owned by the node.
func (n *Node) Accounts() *dtree.Tree { return n.accounts }

func heightOf(n *Node) int {
	if n == nil {
		return -1
	}
	return n.height
}

func (n *Node) updateHeight() {
	n.height = 1 + max(heightOf(n.left), heightOf(n.right))
}

func (n *Node) balance() int {
	return heightOf(n.left) - heightOf(n.right)
}

// Rotation kinds reported to Hooks.OnRotate.
const (
	RotateLeft      = "left"
	RotateRight     = "right"
	RotateLeftRight = "left-right"
	RotateRightLeft = "right-left"
)

// Splice kinds reported to Hooks.OnSplice.
const (
	SpliceLeaf        = "leaf"
	SpliceOneChild    = "one-child"
	SplicePredecessor = "predecessor"
)

// Hooks observe structural changes. Any field may be nil.
type Hooks struct {
	OnRebuild dtree.RebuildHook
	OnRotate  func(kind string)
	OnSplice  func(username, kind string)
}

// Tree is the username-keyed primary index. The zero value is an empty tree.
// A Tree is not safe for concurrent use.
type Tree struct {
	root  *Node
	hooks Hooks
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{}
}

// SetHooks installs h and propagates the rebuild hook to every secondary
// index already in the tree.
func (t *Tree) SetHooks(h Hooks) {
	t.hooks = h
	t.walk(t.root, func(n *Node) bool {
		n.accounts.SetRebuildHook(h.OnRebuild)
		return true
	})
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node { return t.root }

// Height returns the height of the tree, -1 when empty.
func (t *Tree) Height() int { return heightOf(t.root) }

// Len returns the number of usernames in the tree.
func (t *Tree) Len() int {
	c := 0
	t.walk(t.root, func(*Node) bool { c++; return true })
	return c
}

// Clear drops every node.
func (t *Tree) Clear() {
	t.root = nil
}

// Insert routes a to the secondary index for its username, creating the node
// when the username is new. It fails when the discriminator is invalid or
// already live under that username.
func (t *Tree) Insert(a account.Account) bool {
	if !a.Valid() {
		return false
	}
	var ok bool
	t.root, ok = t.insert(t.root, a)
	return ok
}

func (t *Tree) insert(n *Node, a account.Account) (*Node, bool) {
	if n == nil {
		accounts := dtree.New()
		accounts.SetRebuildHook(t.hooks.OnRebuild)
		if !accounts.Insert(a) {
			return nil, false
		}
		return &Node{username: a.Username(), accounts: accounts}, true
	}

	var ok bool
	switch {
	case a.Username() < n.username:
		n.left, ok = t.insert(n.left, a)
	case a.Username() > n.username:
		n.right, ok = t.insert(n.right, a)
	default:
		return n, n.accounts.Insert(a)
	}
	if !ok {
		return n, false
	}
	return t.fixup(n), true
}

// RemoveUser marks the account (username, disc) vacant and returns it. When
// the username's last live account goes, its node is spliced out.
func (t *Tree) RemoveUser(username string, disc int) (account.Account, bool) {
	var (
		removed account.Account
		ok      bool
	)
	t.root, removed, ok = t.removeUser(t.root, username, disc)
	return removed, ok
}

func (t *Tree) removeUser(n *Node, username string, disc int) (*Node, account.Account, bool) {
	if n == nil {
		return nil, account.Empty(), false
	}

	var (
		removed account.Account
		ok      bool
	)
	switch {
	case username < n.username:
		n.left, removed, ok = t.removeUser(n.left, username, disc)
	case username > n.username:
		n.right, removed, ok = t.removeUser(n.right, username, disc)
	default:
		removed, ok = n.accounts.Remove(disc)
		if ok && n.accounts.CountLive() == 0 {
			n = t.splice(n)
		}
	}
	if !ok {
		return n, removed, false
	}
	if n == nil {
		return nil, removed, true
	}
	return t.fixup(n), removed, true
}

// splice unlinks n and returns the subtree that takes its place. With two
// children the in-order predecessor is removed from the left subtree and its
// username and secondary index move into n.
func (t *Tree) splice(n *Node) *Node {
	username := n.username
	switch {
	case n.left == nil && n.right == nil:
		t.spliced(username, SpliceLeaf)
		return nil
	case n.left == nil:
		t.spliced(username, SpliceOneChild)
		return n.right
	case n.right == nil:
		t.spliced(username, SpliceOneChild)
		return n.left
	}

	var donor *Node
	n.left, donor = t.removeRightmost(n.left)
	n.username = donor.username
	n.accounts = donor.accounts
	donor.accounts = nil
	t.spliced(username, SplicePredecessor)
	return n
}

// removeRightmost detaches the rightmost node of the subtree at n, keeping
// the remaining path balanced, and returns the new subtree root and the
// detached node.
func (t *Tree) removeRightmost(n *Node) (*Node, *Node) {
	if n.right == nil {
		rest := n.left
		n.left = nil
		return rest, n
	}
	var donor *Node
	n.right, donor = t.removeRightmost(n.right)
	return t.fixup(n), donor
}

func (t *Tree) spliced(username, kind string) {
	if t.hooks.OnSplice != nil {
		t.hooks.OnSplice(username, kind)
	}
}

// Retrieve returns the node for username, or nil.
func (t *Tree) Retrieve(username string) *Node {
	n := t.root
	for n != nil {
		switch {
		case username < n.username:
			n = n.left
		case username > n.username:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// RetrieveUser returns the live secondary entry for (username, disc), or nil.
func (t *Tree) RetrieveUser(username string, disc int) *dtree.Node {
	n := t.Retrieve(username)
	if n == nil {
		return nil
	}
	return n.accounts.Retrieve(disc)
}

// NumUsers returns the number of live accounts under username.
func (t *Tree) NumUsers(username string) int {
	n := t.Retrieve(username)
	if n == nil {
		return 0
	}
	return n.accounts.CountLive()
}

// Clone returns a deep copy of both index levels. Hooks are carried over.
func (t *Tree) Clone() *Tree {
	return &Tree{root: cloneNode(t.root), hooks: t.hooks}
}

func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		username: n.username,
		height:   n.height,
		accounts: n.accounts.Clone(),
		left:     cloneNode(n.left),
		right:    cloneNode(n.right),
	}
}
