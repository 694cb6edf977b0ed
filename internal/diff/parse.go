package diff

import (
	"regexp"
	"strconv"
	"strings"
)

var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+),?(\d*) \+(\d+),?(\d*) @@`)

var binaryFileRe = regexp.MustCompile(` and b/(.+) differ$`)

// Parse parses multi-file unified diff text into per-file hunk lists.
//
// Parsing is deliberately lenient: a line that does not match any known
// diff structure is simply not attached to a hunk, and the function never
// returns an error. The target path comes from the "+++" marker unless the
// file was deleted (new side is /dev/null), in which case it comes from the
// "---" marker. Binary files are flagged with an empty hunk list. The
// "\ No newline at end of file" marker is discarded.
func Parse(diffText string) map[string]*FileDiff {
	files := make(map[string]*FileDiff)

	var aPath, bPath string
	var curFile *FileDiff
	var curHunk *Hunk

	flush := func() {
		if curFile != nil && curHunk != nil {
			curFile.Hunks = append(curFile.Hunks, *curHunk)
		}
		curHunk = nil
	}

	ensure := func(path string) *FileDiff {
		if f, ok := files[path]; ok {
			return f
		}
		f := &FileDiff{Path: path}
		files[path] = f
		return f
	}

	for _, raw := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(raw, "diff --git ") {
			flush()
			aPath, bPath = "", ""
			curFile = nil
			continue
		}
		if strings.HasPrefix(raw, "--- ") {
			aPath = strings.TrimSpace(raw[4:])
			continue
		}
		if strings.HasPrefix(raw, "+++ ") {
			flush()
			bPath = strings.TrimSpace(raw[4:])
			var path string
			switch {
			case strings.HasPrefix(bPath, "b/"):
				path = bPath[2:]
			case bPath == "/dev/null" && strings.HasPrefix(aPath, "a/"):
				// Deleted file: only the old side carries the path
				path = aPath[2:]
			default:
				path = bPath
			}
			curFile = ensure(path)
			continue
		}
		if strings.HasPrefix(raw, "Binary files ") {
			flush()
			if m := binaryFileRe.FindStringSubmatch(raw); m != nil {
				f := ensure(m[1])
				f.Binary = true
				curFile = f
			}
			continue
		}

		if m := hunkHeaderRe.FindStringSubmatch(raw); m != nil && curFile != nil {
			flush()
			curHunk = &Hunk{
				OldStart: atoiDefault(m[1], 0),
				OldLines: atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 0),
				NewLines: atoiDefault(m[4], 1),
			}
			continue
		}

		if curHunk == nil || raw == "" {
			continue
		}
		if strings.HasPrefix(raw, `\ No newline at end of file`) {
			continue
		}
		switch raw[0] {
		case ' ':
			curHunk.Lines = append(curHunk.Lines, Line{Op: OpContext, Text: raw[1:]})
		case '+':
			curHunk.Lines = append(curHunk.Lines, Line{Op: OpAdded, Text: raw[1:]})
		case '-':
			curHunk.Lines = append(curHunk.Lines, Line{Op: OpRemoved, Text: raw[1:]})
		}
	}
	flush()

	return files
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
