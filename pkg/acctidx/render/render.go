// Package render turns both index levels into text. Everything here is a
// read-only visitor over the exported traversal of dtree and utree.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"

	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/dtree"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utils"
	"github.com/CVDpl/go-acctidx/pkg/acctidx/utree"
)

// DumpAccounts renders a secondary index in parenthesized form, one
// "disc:size:vacantCount" per node.
func DumpAccounts(t *dtree.Tree) string {
	var sb strings.Builder
	dumpAccounts(&sb, t.Root())
	return sb.String()
}

func dumpAccounts(sb *strings.Builder, n *dtree.Node) {
	if n == nil {
		return
	}
	sb.WriteByte('(')
	dumpAccounts(sb, n.Left())
	sb.WriteString(strconv.Itoa(n.Discriminator()))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(n.Size()))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(n.VacantCount()))
	dumpAccounts(sb, n.Right())
	sb.WriteByte(')')
}

// DumpUsers renders the primary index in parenthesized form, one
// "username:height:liveAccounts" per node.
func DumpUsers(t *utree.Tree) string {
	var sb strings.Builder
	dumpUsers(&sb, t.Root())
	return sb.String()
}

func dumpUsers(sb *strings.Builder, n *utree.Node) {
	if n == nil {
		return
	}
	sb.WriteByte('(')
	dumpUsers(sb, n.Left())
	sb.WriteString(n.Username())
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(n.Height()))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(n.Accounts().CountLive()))
	dumpUsers(sb, n.Right())
	sb.WriteByte(')')
}

// PrintAccounts writes every live account of t in discriminator order.
func PrintAccounts(w io.Writer, t *dtree.Tree) error {
	var err error
	t.Ascend(func(a account.Account) bool {
		_, err = fmt.Fprintln(w, a.String())
		return err == nil
	})
	return err
}

// PrintUsers writes every live account of t ordered by username, then
// discriminator.
func PrintUsers(w io.Writer, t *utree.Tree) error {
	var err error
	t.Ascend(func(a account.Account) bool {
		_, err = fmt.Fprintln(w, a.String())
		return err == nil
	})
	return err
}

// AccountTree builds a structural view of a secondary index. Vacant nodes
// are marked, and a missing child is shown as "null" when its sibling exists.
func AccountTree(t *dtree.Tree) treeprint.Tree {
	root := t.Root()
	if root == nil {
		return treeprint.NewWithRoot("(empty)")
	}
	tree := treeprint.NewWithRoot(accountLabel(root))
	addAccountChildren(tree, root)
	return tree
}

func accountLabel(n *dtree.Node) string {
	label := fmt.Sprintf("%d [%d:%d]", n.Discriminator(), n.Size(), n.VacantCount())
	if n.Vacant() {
		label += " (vacant)"
	}
	return label
}

func addAccountChildren(branch treeprint.Tree, n *dtree.Node) {
	if n.Left() == nil && n.Right() == nil {
		return
	}
	for _, c := range []*dtree.Node{n.Left(), n.Right()} {
		if c == nil {
			branch.AddNode("null")
			continue
		}
		addAccountNode(branch, c)
	}
}

func addAccountNode(parent treeprint.Tree, n *dtree.Node) {
	if n.Left() == nil && n.Right() == nil {
		parent.AddNode(accountLabel(n))
		return
	}
	addAccountChildren(parent.AddBranch(accountLabel(n)), n)
}

// UserTree builds a structural view of the primary index. With accounts set,
// each user node also carries its secondary index.
func UserTree(t *utree.Tree, accounts bool) treeprint.Tree {
	root := t.Root()
	if root == nil {
		return treeprint.NewWithRoot("(empty)")
	}
	tree := treeprint.NewWithRoot(userLabel(root))
	addUserChildren(tree, root, accounts)
	return tree
}

func userLabel(n *utree.Node) string {
	return fmt.Sprintf("%s [h=%d live=%d]", n.Username(), n.Height(), n.Accounts().CountLive())
}

func addUserChildren(branch treeprint.Tree, n *utree.Node, accounts bool) {
	if accounts && n.Accounts().Root() != nil {
		addAccountNode(branch.AddBranch("accounts"), n.Accounts().Root())
	}
	if n.Left() == nil && n.Right() == nil {
		return
	}
	for _, c := range []*utree.Node{n.Left(), n.Right()} {
		if c == nil {
			branch.AddNode("null")
			continue
		}
		addUserChildren(branch.AddBranch(userLabel(c)), c, accounts)
	}
}

// Fingerprint hashes the complete two-level structure: shape, heights, sizes,
// vacancy flags and account payloads. Structures that compare equal node for
// node share a fingerprint.
func Fingerprint(t *utree.Tree) string {
	var sb strings.Builder
	fingerprintUsers(&sb, t.Root())
	return utils.ComputeBLAKE3([]byte(sb.String()))
}

func fingerprintUsers(sb *strings.Builder, n *utree.Node) {
	if n == nil {
		sb.WriteString("-")
		return
	}
	fmt.Fprintf(sb, "{%q:%d[", n.Username(), n.Height())
	fingerprintAccounts(sb, n.Accounts().Root())
	sb.WriteString("]")
	fingerprintUsers(sb, n.Left())
	fingerprintUsers(sb, n.Right())
	sb.WriteString("}")
}

func fingerprintAccounts(sb *strings.Builder, n *dtree.Node) {
	if n == nil {
		sb.WriteString("-")
		return
	}
	a := n.Account()
	fmt.Fprintf(sb, "{%d:%d:%d:%t:%t:%q:%q", a.Discriminator(), n.Size(), n.VacantCount(),
		n.Vacant(), a.Nitro(), a.Badge(), a.Status())
	fingerprintAccounts(sb, n.Left())
	fingerprintAccounts(sb, n.Right())
	sb.WriteString("}")
}
