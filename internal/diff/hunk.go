package diff

import "sort"

// LineOp represents the role of a single line inside a hunk
type LineOp int

const (
	// OpContext is an unchanged line shared by old and new content
	OpContext LineOp = iota
	// OpAdded is a line present only in the new content
	OpAdded
	// OpRemoved is a line present only in the old content
	OpRemoved
)

// Line is one tagged line of a hunk, with the diff marker stripped
type Line struct {
	Op   LineOp
	Text string
}

// Hunk is a contiguous block of a unified diff for one file.
// An omitted length in the hunk header means 1, not 0.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Lines    []Line
}

// FileDiff holds the parsed diff of a single file. A binary file has
// Binary set and an empty hunk list.
type FileDiff struct {
	Path   string
	Binary bool
	Hunks  []Hunk
}

// SortedHunks returns the file's hunks ordered by (OldStart, NewStart).
// This order defines the change numbering, so the addresser and the
// patcher must both traverse it.
func (f *FileDiff) SortedHunks() []Hunk {
	hunks := make([]Hunk, len(f.Hunks))
	copy(hunks, f.Hunks)
	sort.SliceStable(hunks, func(i, j int) bool {
		if hunks[i].OldStart != hunks[j].OldStart {
			return hunks[i].OldStart < hunks[j].OldStart
		}
		return hunks[i].NewStart < hunks[j].NewStart
	})
	return hunks
}

// CountChanges returns the number of added and removed lines across hunks,
// which equals the highest change number assigned to the file.
func CountChanges(hunks []Hunk) int {
	count := 0
	for _, h := range hunks {
		for _, ln := range h.Lines {
			if ln.Op == OpAdded || ln.Op == OpRemoved {
				count++
			}
		}
	}
	return count
}
