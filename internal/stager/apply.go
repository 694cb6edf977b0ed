package stager

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/syou6162/git-line-stage/internal/diff"
)

// ApplySelected reconstructs file content from the original lines, the
// file's hunks and a set of selected change numbers.
//
// The hunks must already be in (OldStart, NewStart) order — the same
// traversal that assigns change numbers in diff.FlattenNumbered. A single
// cursor walks the original content; every added or removed line advances
// the change counter whether or not it is selected, which keeps the
// counter aligned with the displayed numbers. Selected removals are
// dropped from the output, unselected removals are kept; selected
// additions are emitted, unselected additions are not. Selected numbers
// that exceed the counter range are ignored.
//
// Any context or deletion mismatch, or a hunk positioned past the end of
// the content, returns a drift error and no output.
func ApplySelected(oldLines []string, hunks []diff.Hunk, selected map[int]bool) ([]string, error) {
	out := make([]string, 0, len(oldLines))
	oldPos := 1 // 1-origin cursor into oldLines
	counter := 1

	for _, h := range hunks {
		preStart := h.OldStart
		if preStart < 1 {
			preStart = 1
		}
		if preStart-1 > len(oldLines)+1 {
			return nil, NewOutOfBoundsError(h.OldStart, len(oldLines))
		}
		for oldPos < preStart && oldPos-1 < len(oldLines) {
			out = append(out, oldLines[oldPos-1])
			oldPos++
		}

		for _, ln := range h.Lines {
			switch ln.Op {
			case diff.OpContext:
				if oldPos-1 >= len(oldLines) {
					return nil, NewOutOfBoundsError(oldPos, len(oldLines))
				}
				if oldLines[oldPos-1] != ln.Text {
					return nil, NewDriftError(oldPos, ln.Text, oldLines[oldPos-1])
				}
				out = append(out, oldLines[oldPos-1])
				oldPos++

			case diff.OpRemoved:
				if oldPos-1 >= len(oldLines) {
					return nil, NewOutOfBoundsError(oldPos, len(oldLines))
				}
				if oldLines[oldPos-1] != ln.Text {
					return nil, NewDriftError(oldPos, ln.Text, oldLines[oldPos-1])
				}
				if !selected[counter] {
					// Deletion not selected: the line stays
					out = append(out, oldLines[oldPos-1])
				}
				oldPos++
				counter++

			case diff.OpAdded:
				if selected[counter] {
					out = append(out, ln.Text)
				}
				counter++
			}
		}
	}

	for oldPos-1 < len(oldLines) {
		out = append(out, oldLines[oldPos-1])
		oldPos++
	}

	return out, nil
}

// FullSelection returns a selection set covering every change number of
// the given hunks, as used by the commit replay path.
func FullSelection(hunks []diff.Hunk) map[int]bool {
	selected := make(map[int]bool)
	for i := 1; i <= diff.CountChanges(hunks); i++ {
		selected[i] = true
	}
	return selected
}

var (
	singleNumberRe = regexp.MustCompile(`^\d{4}$`)
	numberRangeRe  = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// ParseChangeNumbers parses a comma-separated list of change number
// tokens. Each token is either a 4-digit zero-padded number ("0007") or
// an inclusive range ("0010-0015"). Duplicates and overlaps are harmless
// since callers treat the result as a set. A malformed token is a parse
// error, raised before any mutation is attempted.
func ParseChangeNumbers(tokens string) ([]int, error) {
	var nums []int
	for _, tok := range strings.Split(tokens, ",") {
		t := strings.TrimSpace(tok)
		if t == "" {
			continue
		}
		if singleNumberRe.MatchString(t) {
			n, _ := strconv.Atoi(t)
			nums = append(nums, n)
			continue
		}
		if m := numberRangeRe.FindStringSubmatch(t); m != nil {
			a, _ := strconv.Atoi(m[1])
			b, _ := strconv.Atoi(m[2])
			if a > b {
				return nil, NewParseError("invalid range: "+t, nil)
			}
			for n := a; n <= b; n++ {
				nums = append(nums, n)
			}
			continue
		}
		return nil, NewParseError("invalid token: "+t, nil)
	}
	return nums, nil
}
