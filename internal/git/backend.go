// Package git provides the version-control backend used by the staging
// and replay engines. The Backend interface covers exactly the operations
// the core needs, so the reconstruction and replay algorithms can be unit
// tested against the in-memory implementation without a git process.
package git

import (
	"context"
	"strings"
)

// FileContent is a file snapshot threaded through replay: ordered lines,
// whether the content ends with a newline, and whether the file ends up
// deleted.
type FileContent struct {
	Lines           []string
	TrailingNewline bool
	Deleted         bool
}

// Backend abstracts the version-control operations required by the core
type Backend interface {
	// DiffWithUntracked produces a unified diff for the given pathspecs
	// with the given context width. Untracked files are presented as pure
	// additions against an empty original and are reported in the first
	// returned set; deleted paths are reported in the second.
	DiffWithUntracked(ctx context.Context, paths []string, unified int) (string, map[string]bool, map[string]bool, error)

	// ReadIndexText reads a path's staged (index) content as lines plus a
	// trailing-newline flag. Paths with no index entry yield empty
	// content, not an error.
	ReadIndexText(ctx context.Context, path string) ([]string, bool, error)

	// WriteIndex stores content as an object and binds it to the path and
	// file mode in the index.
	WriteIndex(ctx context.Context, path, mode, content string) error

	// FileMode resolves the index or filesystem mode for a path, falling
	// back to the default non-executable blob mode.
	FileMode(ctx context.Context, path string) string

	// ResolveRevision resolves a revision reference to a commit identifier
	ResolveRevision(ctx context.Context, rev string) (string, error)

	// CommitPatch returns the unified diff between a commit and its first
	// parent (or the empty tree for a root commit).
	CommitPatch(ctx context.Context, commit string) (string, error)

	// ShowFile reads a path's content at a revision as lines plus a
	// trailing-newline flag. Absent paths yield empty content.
	ShowFile(ctx context.Context, rev, path string) ([]string, bool, error)

	// BranchExists reports whether a local branch name is already taken
	BranchExists(ctx context.Context, name string) (bool, error)

	// CreateBranch synthesizes a commit on top of parent holding the given
	// file overrides and points a new branch ref at it. It returns the new
	// commit identifier.
	CreateBranch(ctx context.Context, name, parent, message string, files map[string]FileContent) (string, error)

	// RecentSubjects lists up to limit recent non-merge commit subjects
	RecentSubjects(ctx context.Context, limit int) ([]string, error)
}

// JoinLines renders a line sequence back into file content, restoring the
// trailing newline when the original content had one. An empty sequence is
// always the empty file.
func JoinLines(lines []string, trailingNewline bool) string {
	if len(lines) == 0 {
		return ""
	}
	content := strings.Join(lines, "\n")
	if trailingNewline {
		content += "\n"
	}
	return content
}

// SplitLines splits file content into lines plus a trailing-newline flag,
// the inverse of JoinLines.
func SplitLines(content string) ([]string, bool) {
	if content == "" {
		return nil, false
	}
	trailing := strings.HasSuffix(content, "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n"), trailing
}
