// Package scanner drives a streaming byte scan over a Scanner's
// immutable bound and unbound scan trees, using a Boyer-Moore-Horspool
// skip table to advance past non-matching positions.
package scanner

import (
	"bytes"

	"github.com/standardbeagle/sigscan/pattern"
	"github.com/standardbeagle/sigscan/scantree"
	"github.com/standardbeagle/sigscan/skiptable"
)

// Result records one accepted pattern match.
type Result struct {
	FileOffset int64
	Pattern    *pattern.Pattern
}

// Phase tracks a ScanState's lifecycle.
type Phase uint8

const (
	PhaseStart Phase = iota
	PhaseScanning
	PhaseStopped
)

// State is the only mutable object in this package: every field a
// single in-progress scan needs to resume across chunk boundaries. One
// State belongs to exactly one concurrent scan; a Scanner's trees and
// skip tables are read-only and safely shared across many States.
type State struct {
	Phase               Phase
	FileOffset          int64
	TreeNode            scantree.NodeIx
	Remaining           []byte
	RemainingFileOffset int64
	Results             []Result
}

// Scanner holds the immutable, pre-built decision trees and skip
// tables a scan walks. Build it once per pattern set and share it
// across any number of concurrent Starts.
type Scanner struct {
	boundTree     *scantree.Tree
	unboundTree   *scantree.Tree
	unboundSkip   *skiptable.Table
	boundPatterns []*pattern.Pattern
}

// New builds a Scanner's bound and unbound scan trees and the unbound
// skip table from an already-lifted pattern set.
func New(patterns []*pattern.Pattern) (*Scanner, error) {
	var boundPatterns, unboundPatterns []*pattern.Pattern
	for _, p := range patterns {
		if p.Signature.IsBound {
			boundPatterns = append(boundPatterns, p)
		} else {
			unboundPatterns = append(unboundPatterns, p)
		}
	}

	boundTree, err := scantree.Build(boundPatterns, pattern.FilterBound)
	if err != nil {
		return nil, err
	}
	unboundTree, err := scantree.Build(unboundPatterns, pattern.FilterUnbound)
	if err != nil {
		return nil, err
	}

	unboundTable, err := pattern.BuildTable(patterns, nil, pattern.FilterUnbound)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		boundTree:     boundTree,
		unboundTree:   unboundTree,
		unboundSkip:   unboundTable.SkipTable(),
		boundPatterns: boundPatterns,
	}, nil
}

// Start begins a new scan, positioned at the unbound tree's root.
func (s *Scanner) Start() *State {
	return &State{Phase: PhaseStart, TreeNode: s.unboundTree.Root}
}

// Feed processes one chunk of contiguous bytes starting at fileOffset.
// If state carries a tail from a previous Feed and that tail is
// contiguous with fileOffset, the two are stitched back together and
// the effective file offset is rewound; otherwise the carried tail is
// discarded (a gap means the caller intentionally skipped ahead, as in
// a head/tail scan).
func (s *Scanner) Feed(state *State, fileOffset int64, data []byte) {
	state.Phase = PhaseScanning

	if len(state.Remaining) > 0 && state.RemainingFileOffset+int64(len(state.Remaining)) == fileOffset {
		data = append(append([]byte(nil), state.Remaining...), data...)
		fileOffset = state.RemainingFileOffset
	}
	state.Remaining = nil

	if fileOffset == 0 {
		s.boundedWalk(state, data)
	}

	dataOffset := s.scanBuffer(state, fileOffset, data, false)

	if dataOffset < len(data) {
		state.Remaining = append([]byte(nil), data[dataOffset:]...)
		state.RemainingFileOffset = fileOffset + int64(dataOffset)
	}
	state.FileOffset = fileOffset + int64(dataOffset)
}

// Stop flushes any carried tail (permitting matches up to the very end
// of the tail, not just up to the lookahead boundary) and returns every
// result collected across the scan's lifetime.
func (s *Scanner) Stop(state *State) []Result {
	if len(state.Remaining) > 0 {
		s.scanBuffer(state, state.RemainingFileOffset, state.Remaining, true)
		state.Remaining = nil
	}
	state.Phase = PhaseStopped
	return state.Results
}

// scanBuffer runs the main BMH-skipping loop over data, appending
// accepted matches to state.Results and returning the data offset the
// loop stopped at (the unconsumed suffix becomes the new tail carry
// unless atEnd permits matching flush to len(data)).
func (s *Scanner) scanBuffer(state *State, fileOffset int64, data []byte, atEnd bool) int {
	if s.unboundTree.Root < 0 {
		return len(data)
	}
	lookahead := s.unboundTree.LargestPatternLength()
	skipPatternLength := s.unboundSkip.Length

	limit := len(data) - lookahead
	if atEnd {
		limit = len(data)
	}

	dataOffset := 0
	treeNode := state.TreeNode

	for dataOffset < limit {
		leaf, matchedNode := s.walk(s.unboundTree, treeNode, data, dataOffset)

		skip := 0
		matched := false

		if leaf != nil {
			l := len(leaf.Signature.Expression)
			if dataOffset+l <= len(data) && bytes.Equal(data[dataOffset:dataOffset+l], leaf.Signature.Expression) {
				accept := true
				if leaf.Signature.IsBound {
					accept = leaf.Signature.Offset != nil && *leaf.Signature.Offset == fileOffset+int64(dataOffset)
				}
				if accept {
					state.Results = append(state.Results, Result{FileOffset: fileOffset + int64(dataOffset), Pattern: leaf})
					skip = l
					matched = true
					treeNode = s.unboundTree.Root
				}
			}
		}
		_ = matchedNode

		if !matched {
			last := skipPatternLength - 1
			if dataOffset+last >= len(data) {
				skip = 1
			} else {
				skip = s.unboundSkip.Skip(data[dataOffset+last])
				if skip == 0 {
					skip = backwardProbe(s.unboundSkip, data, dataOffset, last)
				}
			}
			treeNode = s.unboundTree.Root
		}

		dataOffset += skip
	}

	state.TreeNode = treeNode
	return dataOffset
}

// backwardProbe handles the BMH degenerate case where the byte at the
// last probed position yields a recorded skip of exactly 0 (the byte
// sits at the final position of some pattern): walk backward through
// the window looking for a position whose byte carries a nonzero skip,
// falling back to 1 if none exists.
func backwardProbe(skip *skiptable.Table, data []byte, dataOffset, last int) int {
	for i := last - 1; i >= 0; i-- {
		if dataOffset+i < 0 {
			break
		}
		if s := skip.Skip(data[dataOffset+i]); s != 0 {
			return s
		}
	}
	return 1
}

// walk descends the tree from start: at each node it inspects the byte
// at the node's pattern offset and follows the matching branch; when
// the observed byte has no branch of its own, it climbs the parent
// chain starting at the current node looking for the nearest default
// branch, then continues the walk from there. It returns the pattern
// at the leaf it eventually lands on, or nil if neither a branch nor
// any ancestor's default applies.
func (s *Scanner) walk(tree *scantree.Tree, start scantree.NodeIx, data []byte, dataOffset int) (*pattern.Pattern, scantree.NodeIx) {
	ix := start
	for {
		node := tree.Node(ix)
		pos := dataOffset + int(node.PatternOffset)

		var branch scantree.Branch
		found := false
		if pos >= 0 && pos < len(data) {
			if b, ok := node.Branches[data[pos]]; ok {
				branch, found = b, true
			}
		}

		if !found {
			climbIx := ix
			for {
				climbNode := tree.Node(climbIx)
				if climbNode.Default.Kind != scantree.BranchNone {
					branch, found = climbNode.Default, true
					break
				}
				if climbNode.Parent < 0 {
					break
				}
				climbIx = climbNode.Parent
			}
		}

		if !found {
			return nil, ix
		}

		switch branch.Kind {
		case scantree.BranchLeaf:
			return branch.Pattern, ix
		case scantree.BranchNode:
			ix = branch.Node
			continue
		default:
			return nil, ix
		}
	}
}

// boundedWalk runs the bound scan tree exactly once, anchored at
// absolute offset 0 within data: bound signatures carry their own
// absolute PatternOffset, so there is no skip loop and no
// re-anchoring -- a single walk either lands on a leaf whose
// signature offset and bytes check out, or it doesn't.
func (s *Scanner) boundedWalk(state *State, data []byte) {
	if s.boundTree.Root < 0 {
		return
	}
	leaf, _ := s.walk(s.boundTree, s.boundTree.Root, data, 0)
	if leaf == nil || leaf.Signature.Offset == nil {
		return
	}
	off := *leaf.Signature.Offset
	if off < 0 || off >= int64(len(data)) {
		return
	}
	l := int64(len(leaf.Signature.Expression))
	if off+l > int64(len(data)) {
		return
	}
	if bytes.Equal(data[off:off+l], leaf.Signature.Expression) {
		state.Results = append(state.Results, Result{FileOffset: off, Pattern: leaf})
	}
}
