package utree

// fixup refreshes n's height and restores the AVL condition at n, returning
// the root of the rebalanced subtree.
func (t *Tree) fixup(n *Node) *Node {
	n.updateHeight()

	switch b := n.balance(); {
	case b > 1:
		if n.left.balance() >= 0 {
			t.rotated(RotateRight)
			return rotateRight(n)
		}
		t.rotated(RotateLeftRight)
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case b < -1:
		if n.right.balance() <= 0 {
			t.rotated(RotateLeft)
			return rotateLeft(n)
		}
		t.rotated(RotateRightLeft)
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}

func (t *Tree) rotated(kind string) {
	if t.hooks.OnRotate != nil {
		t.hooks.OnRotate(kind)
	}
}

// rotateLeft lifts n.right above n.
func rotateLeft(n *Node) *Node {
	r := n.right
	n.right = r.left
	r.left = n
	n.updateHeight()
	r.updateHeight()
	return r
}

// rotateRight lifts n.left above n.
func rotateRight(n *Node) *Node {
	l := n.left
	n.left = l.right
	l.right = n
	n.updateHeight()
	l.updateHeight()
	return l
}
