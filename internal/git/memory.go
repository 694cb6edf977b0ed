package git

import (
	"context"
	"fmt"
	"strings"
)

// MemoryCommit is one commit known to the in-memory backend: its own
// patch (diff against its predecessor) and the full file snapshot at the
// commit.
type MemoryCommit struct {
	Patch string
	Files map[string]string
}

// CreatedBranch records one CreateBranch call made against the backend
type CreatedBranch struct {
	Name    string
	Parent  string
	Message string
	Files   map[string]FileContent
}

// MemoryBackend is a deterministic in-memory Backend for unit tests.
// Diff output is scripted rather than computed: tests provide the diff
// text a real repository would produce, the same way the mock executor
// scripts command responses.
type MemoryBackend struct {
	// DiffText is returned by DiffWithUntracked when no per-pathspec
	// entry matches
	DiffText string
	// DiffByPaths maps a comma-joined pathspec to scripted diff text
	DiffByPaths map[string]string
	// Untracked and Deleted are the path enumeration results
	Untracked map[string]bool
	Deleted   map[string]bool

	// Index holds staged content by path
	Index map[string]string
	// Modes holds file modes by path
	Modes map[string]string

	// Commits holds commits by identifier
	Commits map[string]MemoryCommit
	// Refs maps symbolic revisions to commit identifiers
	Refs map[string]string
	// Branches maps existing branch names to commit identifiers
	Branches map[string]string
	// Subjects is returned by RecentSubjects
	Subjects []string

	// Created records CreateBranch calls in order
	Created []CreatedBranch
	// PatchRequests counts CommitPatch calls, letting tests assert that
	// no replay was attempted
	PatchRequests int
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		DiffByPaths: make(map[string]string),
		Untracked:   make(map[string]bool),
		Deleted:     make(map[string]bool),
		Index:       make(map[string]string),
		Modes:       make(map[string]string),
		Commits:     make(map[string]MemoryCommit),
		Refs:        make(map[string]string),
		Branches:    make(map[string]string),
	}
}

// DiffWithUntracked implements Backend.DiffWithUntracked
func (m *MemoryBackend) DiffWithUntracked(ctx context.Context, paths []string, unified int) (string, map[string]bool, map[string]bool, error) {
	text := m.DiffText
	if len(paths) > 0 {
		if scripted, ok := m.DiffByPaths[strings.Join(paths, ",")]; ok {
			text = scripted
		}
	}
	return text, m.Untracked, m.Deleted, nil
}

// ReadIndexText implements Backend.ReadIndexText
func (m *MemoryBackend) ReadIndexText(ctx context.Context, path string) ([]string, bool, error) {
	content, ok := m.Index[path]
	if !ok {
		return nil, false, nil
	}
	lines, trailing := SplitLines(content)
	return lines, trailing, nil
}

// WriteIndex implements Backend.WriteIndex
func (m *MemoryBackend) WriteIndex(ctx context.Context, path, mode, content string) error {
	m.Index[path] = content
	m.Modes[path] = mode
	return nil
}

// FileMode implements Backend.FileMode
func (m *MemoryBackend) FileMode(ctx context.Context, path string) string {
	if mode, ok := m.Modes[path]; ok {
		return mode
	}
	return DefaultFileMode
}

// ResolveRevision implements Backend.ResolveRevision
func (m *MemoryBackend) ResolveRevision(ctx context.Context, rev string) (string, error) {
	if id, ok := m.Refs[rev]; ok {
		return id, nil
	}
	if _, ok := m.Commits[rev]; ok {
		return rev, nil
	}
	return "", fmt.Errorf("unknown revision: %s", rev)
}

// CommitPatch implements Backend.CommitPatch
func (m *MemoryBackend) CommitPatch(ctx context.Context, commit string) (string, error) {
	m.PatchRequests++
	c, ok := m.Commits[commit]
	if !ok {
		return "", fmt.Errorf("unknown commit: %s", commit)
	}
	return c.Patch, nil
}

// ShowFile implements Backend.ShowFile
func (m *MemoryBackend) ShowFile(ctx context.Context, rev, path string) ([]string, bool, error) {
	id := rev
	if resolved, ok := m.Refs[rev]; ok {
		id = resolved
	}
	c, ok := m.Commits[id]
	if !ok {
		return nil, false, nil
	}
	content, ok := c.Files[path]
	if !ok {
		return nil, false, nil
	}
	lines, trailing := SplitLines(content)
	return lines, trailing, nil
}

// BranchExists implements Backend.BranchExists
func (m *MemoryBackend) BranchExists(ctx context.Context, name string) (bool, error) {
	_, ok := m.Branches[name]
	return ok, nil
}

// CreateBranch implements Backend.CreateBranch
func (m *MemoryBackend) CreateBranch(ctx context.Context, name, parent, message string, files map[string]FileContent) (string, error) {
	copied := make(map[string]FileContent, len(files))
	for path, fc := range files {
		lines := make([]string, len(fc.Lines))
		copy(lines, fc.Lines)
		copied[path] = FileContent{Lines: lines, TrailingNewline: fc.TrailingNewline, Deleted: fc.Deleted}
	}
	m.Created = append(m.Created, CreatedBranch{Name: name, Parent: parent, Message: message, Files: copied})

	commit := fmt.Sprintf("commit-%s", name)
	m.Branches[name] = commit
	return commit, nil
}

// RecentSubjects implements Backend.RecentSubjects
func (m *MemoryBackend) RecentSubjects(ctx context.Context, limit int) ([]string, error) {
	if len(m.Subjects) > limit {
		return m.Subjects[:limit], nil
	}
	return m.Subjects, nil
}
