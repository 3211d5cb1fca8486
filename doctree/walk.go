package doctree

// VisitFunc is called for every visited node. Returning false prevents
// visiting node children.
type VisitFunc func(n *Node, depth int) bool

// Walk visits tree in document (pre-) order.
func Walk(root *Node, fn VisitFunc) {
	walk(root, 0, fn)
}

func walk(n *Node, depth int, fn VisitFunc) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Collect returns all nodes of the requested kind in document order.
func Collect(root *Node, kind Kind) []*Node {
	var out []*Node
	Walk(root, func(n *Node, _ int) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Count returns number of nodes of the requested kind.
func Count(root *Node, kind Kind) int {
	return len(Collect(root, kind))
}

// Path returns chain of nodes from root to target inclusive, nil if target is
// not part of the tree.
func Path(root, target *Node) []*Node {
	if root == nil || target == nil {
		return nil
	}
	if root == target {
		return []*Node{root}
	}
	for _, c := range root.Children {
		if p := Path(c, target); p != nil {
			return append([]*Node{root}, p...)
		}
	}
	return nil
}

// Next returns first visible node following target in document order: the
// next visible sibling, or, if there is none, the next visible sibling of the
// closest ancestor which has one. Children of target are not considered.
func Next(root, target *Node) *Node {
	path := Path(root, target)
	for i := len(path) - 1; i > 0; i-- {
		parent, child := path[i-1], path[i]
		idx := indexOf(parent, child)
		for _, sibling := range parent.Children[idx+1:] {
			if !sibling.Invisible() {
				return sibling
			}
		}
	}
	return nil
}

// Remove detaches target from its parent. It reports whether target was
// found.
func Remove(root, target *Node) bool {
	path := Path(root, target)
	if len(path) < 2 {
		return false
	}
	parent := path[len(path)-2]
	idx := indexOf(parent, target)
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	return true
}

// Replace substitutes target with replacement nodes (possibly none) keeping
// position. It reports whether target was found.
func Replace(root, target *Node, replacement ...*Node) bool {
	path := Path(root, target)
	if len(path) < 2 {
		return false
	}
	parent := path[len(path)-2]
	idx := indexOf(parent, target)
	children := make([]*Node, 0, len(parent.Children)-1+len(replacement))
	children = append(children, parent.Children[:idx]...)
	children = append(children, replacement...)
	children = append(children, parent.Children[idx+1:]...)
	parent.Children = children
	return true
}

func indexOf(parent, child *Node) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}
