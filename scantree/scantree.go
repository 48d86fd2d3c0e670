// Package scantree builds the decision tree a Scanner walks to locate
// candidate pattern matches: at each node it inspects one byte offset
// and branches on the observed value, falling back to a default branch
// or climbing to an ancestor's default when the observed value has no
// branch of its own.
//
// The tree is arena-allocated: nodes live in a single Tree.nodes slice
// and branches reference each other by index (NodeIx) rather than by
// pointer, so the parent-chasing walk the original recursive-descent
// design needs for its "climb to an ancestor's default" fallback has no
// cycle for the Go garbage collector to reason about.
package scantree

import (
	"sort"

	"github.com/standardbeagle/sigscan/pattern"
	"github.com/standardbeagle/sigscan/sigerrors"
	"github.com/standardbeagle/sigscan/weights"
)

// NodeIx indexes into a Tree's node arena. NodeIx 0 is a legitimate
// node (the first one built, which is the root of a non-empty tree);
// the absence of a node is marked with -1, and Tree.Root records the
// root explicitly.
type NodeIx int32

const noNode NodeIx = -1

// BranchKind tags which arm of Branch is populated.
type BranchKind uint8

const (
	// BranchNone marks an empty branch slot.
	BranchNone BranchKind = iota
	// BranchNode means the branch descends to another node.
	BranchNode
	// BranchLeaf means the branch terminates at a single pattern.
	BranchLeaf
)

// Branch is the tagged union of ScanTreeNode's two possible arms,
// standing in for the Leaf(Pattern) | SubNode(ScanTreeNode) sum type.
type Branch struct {
	Kind    BranchKind
	Node    NodeIx
	Pattern *pattern.Pattern
}

// Node is one level of the decision tree: it inspects the byte at
// PatternOffset and dispatches on the observed value.
type Node struct {
	PatternOffset int64
	Branches      map[byte]Branch
	Default       Branch
	Parent        NodeIx
}

// Tree is an arena of Nodes rooted at Root, built from one bound-ness
// class of patterns (all-bound or all-unbound -- see pattern.Filter).
type Tree struct {
	nodes                 []Node
	Root                  NodeIx
	largestPatternLength  int
}

func (t *Tree) newNode(offset int64, parent NodeIx) NodeIx {
	t.nodes = append(t.nodes, Node{
		PatternOffset: offset,
		Branches:      make(map[byte]Branch),
		Parent:        parent,
	})
	return NodeIx(len(t.nodes) - 1)
}

// Node returns the node at ix.
func (t *Tree) Node(ix NodeIx) *Node {
	return &t.nodes[ix]
}

// LargestPatternLength is the longest expression among every pattern
// the tree was built from -- the streaming scanner's lookahead bound.
func (t *Tree) LargestPatternLength() int {
	return t.largestPatternLength
}

// Build constructs a scan tree over patterns (all of one bound-ness).
// It mirrors the recursive build_node algorithm: at each level it forms
// a PatternTable excluding previously-selected offsets, computes
// similarity/occurrence/value weights over that table, picks the most
// significant offset, and partitions patterns into per-byte-value
// branches (recursing where more than one pattern shares a value) plus
// a default branch for patterns that did not exhibit any indexed byte
// at the selected offset.
func Build(patterns []*pattern.Pattern, filter pattern.Filter) (*Tree, error) {
	t := &Tree{}
	if len(patterns) == 0 {
		t.Root = noNode
		return t, nil
	}

	largest := 0
	for _, p := range patterns {
		if l := len(p.Signature.Expression); l > largest {
			largest = l
		}
	}
	t.largestPatternLength = largest

	root, err := t.buildNode(patterns, map[int64]bool{}, filter, noNode)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
}

func (t *Tree) buildNode(patternSet []*pattern.Pattern, ignore map[int64]bool, filter pattern.Filter, parent NodeIx) (NodeIx, error) {
	table, err := pattern.BuildTable(patternSet, ignore, filter)
	if err != nil {
		return noNode, err
	}

	sim, occ, val := computeWeights(table)

	offset, err := selectOffset(len(patternSet), sim, occ, val)
	if err != nil {
		return noNode, err
	}

	childIgnore := make(map[int64]bool, len(ignore)+1)
	for k := range ignore {
		childIgnore[k] = true
	}
	childIgnore[offset] = true

	nodeIx := t.newNode(offset, parent)

	remaining := make(map[string]*pattern.Pattern, len(patternSet))
	for _, p := range patternSet {
		remaining[p.ID] = p
	}

	byteValues := table.SortedByteValues(offset)
	for _, bv := range byteValues {
		group := table.ByteValuesAt(offset)[bv]
		if len(group) == 0 {
			continue
		}
		for _, p := range group {
			delete(remaining, p.ID)
		}

		var branch Branch
		if len(group) == 1 {
			branch = Branch{Kind: BranchLeaf, Pattern: group[0]}
		} else {
			subIx, err := t.buildNode(group, childIgnore, filter, nodeIx)
			if err != nil {
				return noNode, err
			}
			branch = Branch{Kind: BranchNode, Node: subIx}
		}
		t.nodes[nodeIx].Branches[bv] = branch
	}

	leftover := make([]*pattern.Pattern, 0, len(remaining))
	for _, p := range patternSet {
		if remaining[p.ID] != nil {
			leftover = append(leftover, p)
		}
	}
	sort.Slice(leftover, func(i, j int) bool { return leftover[i].ID < leftover[j].ID })

	switch len(leftover) {
	case 0:
		// no default
	case 1:
		t.nodes[nodeIx].Default = Branch{Kind: BranchLeaf, Pattern: leftover[0]}
	default:
		subIx, err := t.buildNode(leftover, childIgnore, filter, nodeIx)
		if err != nil {
			return noNode, err
		}
		t.nodes[nodeIx].Default = Branch{Kind: BranchNode, Node: subIx}
	}

	return nodeIx, nil
}

func computeWeights(table *pattern.Table) (similarity, occurrence, value *weights.Table) {
	offsets := table.Offsets()
	similarity = weights.New(offsets)
	occurrence = weights.New(offsets)
	value = weights.New(offsets)

	for _, offset := range offsets {
		byValue := table.ByteValuesAt(offset)

		distinct := 0
		for bv, group := range byValue {
			k := len(group)
			similarity.Add(offset, k)
			distinct++

			if !weights.IsCommonByte(bv) {
				value.Add(offset, 1)
			}
		}
		if distinct > 1 {
			occurrence.Set(offset, distinct)
		}
	}

	return similarity, occurrence, value
}

// selectOffset implements the §4.6 most-significant-offset decision:
// similarity weight governs for 3+ candidate patterns, occurrence
// weight for exactly 2, and value weight for exactly 1, with each
// higher tier falling back to the next when its weight is zero
// everywhere.
func selectOffset(n int, similarity, occurrence, value *weights.Table) (int64, error) {
	switch {
	case n >= 3:
		if similarity.Largest() > 0 {
			candidates := similarity.OffsetsForWeight(similarity.Largest())
			return pickBySimilarityTier(candidates, occurrence, value)
		}
		fallthrough
	case n == 2:
		if occurrence.Largest() > 0 {
			candidates := occurrence.OffsetsForWeight(occurrence.Largest())
			return pickByOccurrenceTier(candidates, value)
		}
		fallthrough
	default:
		return pickByValueTier(value)
	}
}

func pickBySimilarityTier(candidates []int64, occurrence, value *weights.Table) (int64, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return pickByOccurrenceAmong(candidates, occurrence, value)
}

func pickByOccurrenceTier(candidates []int64, value *weights.Table) (int64, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return pickByValueAmong(candidates, value)
}

func pickByOccurrenceAmong(candidates []int64, occurrence, value *weights.Table) (int64, error) {
	best := bestByWeight(candidates, occurrence)
	if len(best) == 1 {
		return best[0], nil
	}
	return pickByValueAmong(best, value)
}

func pickByValueAmong(candidates []int64, value *weights.Table) (int64, error) {
	best := bestByWeight(candidates, value)
	return best[0], nil
}

func pickByValueTier(value *weights.Table) (int64, error) {
	largest := value.Largest()
	if largest <= 0 {
		return 0, sigerrors.New(sigerrors.KindNoDiscriminator, "scantree.selectOffset",
			"no offset carries a positive value weight")
	}
	candidates := value.OffsetsForWeight(largest)
	return candidates[0], nil
}

// bestByWeight returns the subset of candidates (already ascending)
// whose weight in table is the maximum among them, preserving ascending
// order -- the tie-break rule of "first seen" among equal weights.
func bestByWeight(candidates []int64, table *weights.Table) []int64 {
	best := table.WeightFor(candidates[0])
	out := []int64{candidates[0]}
	for _, c := range candidates[1:] {
		w := table.WeightFor(c)
		switch {
		case w > best:
			best = w
			out = []int64{c}
		case w == best:
			out = append(out, c)
		}
	}
	return out
}
