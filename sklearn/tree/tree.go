package tree

import (
	"strings"
)

// Node is one vertex of a decision tree. Internal nodes split on Attribute;
// leaves carry a class Label. Rule is the attribute value on the edge from
// the parent, empty for the root.
type Node struct {
	ID        int
	Attribute string
	Column    int
	Rule      string
	Label     string
	Leaf      bool
	Children  []int
}

// Tree stores its nodes in an arena indexed by Node.ID with the root at 0.
// Exported fields keep it gob-encodable for model.SaveModel.
type Tree struct {
	Nodes []Node
}

// Root returns the root node, nil for an empty tree.
func (t *Tree) Root() *Node {
	if t == nil || len(t.Nodes) == 0 {
		return nil
	}
	return &t.Nodes[0]
}

// Classify walks from the root following the edge whose rule equals the
// row's value for each split column. ok is false when some node has no
// matching edge. row is laid out like the training rows.
func (t *Tree) Classify(row []string) (label string, ok bool) {
	if len(t.Nodes) == 0 {
		return "", false
	}
	n := &t.Nodes[0]
	for !n.Leaf {
		if n.Column >= len(row) {
			return "", false
		}
		v := row[n.Column]
		next := -1
		for _, c := range n.Children {
			if t.Nodes[c].Rule == v {
				next = c
				break
			}
		}
		if next < 0 {
			return "", false
		}
		n = &t.Nodes[next]
	}
	return n.Label, true
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.depth(0)
}

func (t *Tree) depth(id int) int {
	d := 0
	for _, c := range t.Nodes[id].Children {
		if cd := t.depth(c) + 1; cd > d {
			d = cd
		}
	}
	return d
}

// Leaves returns the number of leaf nodes.
func (t *Tree) Leaves() int {
	n := 0
	for _, node := range t.Nodes {
		if node.Leaf {
			n++
		}
	}
	return n
}

// String renders the tree one edge per line:
//
//	outlook = sunny
//	|  humidity = high: no
//	outlook = overcast: yes
func (t *Tree) String() string {
	if len(t.Nodes) == 0 {
		return ""
	}
	root := t.Nodes[0]
	if root.Leaf {
		return ": " + root.Label + "\n"
	}
	var b strings.Builder
	t.write(&b, 0, 0)
	return b.String()
}

func (t *Tree) write(b *strings.Builder, id, level int) {
	parent := t.Nodes[id]
	for _, c := range parent.Children {
		child := t.Nodes[c]
		b.WriteString(strings.Repeat("|  ", level))
		b.WriteString(parent.Attribute)
		b.WriteString(" = ")
		b.WriteString(child.Rule)
		if child.Leaf {
			b.WriteString(": ")
			b.WriteString(child.Label)
			b.WriteByte('\n')
			continue
		}
		b.WriteByte('\n')
		t.write(b, c, level+1)
	}
}
