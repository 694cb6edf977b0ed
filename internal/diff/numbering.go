package diff

import "fmt"

const contextIndent = "        "

// FlattenNumbered renders a file's hunks as a flat display listing.
// Added and removed lines are prefixed with their zero-padded 4-digit
// change number; context lines are indented and unnumbered; a "..."
// separator marks the gap between hunks. Numbering starts at 1 and is
// recomputed from scratch on every call: the numbers are only valid
// against the diff snapshot they were produced from.
func FlattenNumbered(hunks []Hunk) []string {
	var out []string
	n := 1
	for i, h := range hunks {
		if i > 0 {
			out = append(out, contextIndent+"...")
		}
		for _, ln := range h.Lines {
			switch ln.Op {
			case OpAdded:
				out = append(out, fmt.Sprintf("%04d: + %s", n, ln.Text))
				n++
			case OpRemoved:
				out = append(out, fmt.Sprintf("%04d: - %s", n, ln.Text))
				n++
			case OpContext:
				out = append(out, contextIndent+ln.Text)
			}
		}
	}
	return out
}

// ByteSize returns the total UTF-8 byte size of the rendered lines,
// used for page budgets and truncation decisions.
func ByteSize(lines []string) int {
	total := 0
	for _, ln := range lines {
		total += len(ln)
	}
	return total
}

// HunkByteSize returns the byte size of the raw diff content of hunks,
// before rendering, used to detect oversized diffs.
func HunkByteSize(hunks []Hunk) int {
	total := 0
	for _, h := range hunks {
		for _, ln := range h.Lines {
			total += len(ln.Text) + 1
		}
	}
	return total
}
