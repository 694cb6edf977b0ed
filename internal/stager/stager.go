package stager

import (
	"context"
	"sort"

	"github.com/syou6162/git-line-stage/internal/diff"
	"github.com/syou6162/git-line-stage/internal/git"
	"github.com/syou6162/git-line-stage/internal/logger"
)

const (
	// UnifiedListDefault is the default context width for list output
	UnifiedListDefault = 20
	// UnifiedApply is the fixed context width used when applying changes
	UnifiedApply = 3
	// PageSizeFilesDefault is the default maximum number of files per page
	PageSizeFilesDefault = 50
	// PageSizeFilesMax is the file count used for batch listings
	PageSizeFilesMax = 1000
	// PageSizeBytesDefault is the default page budget in bytes
	PageSizeBytesDefault = 30 * 1024
	// MaxDiffBytes is the per-file diff size above which list output is
	// truncated to protect the caller's context budget
	MaxDiffBytes = 10 * 1024
	// RecentSubjectCount is how many commit subjects Organize reports
	RecentSubjectCount = 5
)

// Stager exposes the line-addressable staging operations: listing changed
// files with numbered changes and selectively applying numbered changes to
// the index.
type Stager struct {
	backend git.Backend
	logger  *logger.Logger
}

// NewStager creates a new stager on top of a backend
func NewStager(backend git.Backend) *Stager {
	return &Stager{
		backend: backend,
		logger:  logger.NewFromEnv(),
	}
}

// AppliedFile describes a successful application for one file
type AppliedFile struct {
	File          string   `json:"file"`
	Count         int      `json:"count"`
	Lines         []string `json:"lines"`
	UnstagedLines int      `json:"unstaged_lines"`
}

// SkippedChange describes a change number that was not applied
type SkippedChange struct {
	File   string `json:"file"`
	Number int    `json:"number"`
	Reason string `json:"reason"`
}

// ApplyStats summarizes an apply operation
type ApplyStats struct {
	Files          int `json:"files"`
	ChangesApplied int `json:"changes_applied"`
	ChangesSkipped int `json:"changes_skipped"`
}

// ApplyResult is the outcome of ApplyChanges
type ApplyResult struct {
	Applied []AppliedFile   `json:"applied"`
	Skipped []SkippedChange `json:"skipped"`
	Stats   ApplyStats      `json:"stats"`
}

// ApplyChanges applies the selected change numbers to one path and stages
// the reconstructed content in the index.
//
// The full candidate content is computed in memory first; the index is
// only written when reconstruction succeeds, so a drift failure leaves the
// backend untouched. Binary files are reported as skipped, never
// attempted.
func (s *Stager) ApplyChanges(ctx context.Context, path string, numbers []int) (*ApplyResult, error) {
	selected := make(map[int]bool, len(numbers))
	ordered := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if !selected[n] {
			ordered = append(ordered, n)
		}
		selected[n] = true
	}
	sort.Ints(ordered)

	diffText, _, _, err := s.backend.DiffWithUntracked(ctx, []string{path}, UnifiedApply)
	if err != nil {
		return nil, NewBackendError("diff", err)
	}
	fd := diff.Parse(diffText)[path]
	if fd == nil {
		return nil, NewNotFoundError(path)
	}
	if fd.Binary {
		return skipAll(path, ordered, "binary"), nil
	}
	if len(fd.Hunks) == 0 {
		return skipAll(path, ordered, "drift"), nil
	}

	oldLines, hadTrailingNL, err := s.backend.ReadIndexText(ctx, path)
	if err != nil {
		return nil, NewBackendError("read index", err)
	}
	if len(oldLines) == 0 {
		// New file: staged content ends with a newline, like git add
		hadTrailingNL = true
	}

	newLines, err := ApplySelected(oldLines, fd.SortedHunks(), selected)
	if err != nil {
		s.logger.Debug("apply failed for %s: %v", path, err)
		return skipAll(path, ordered, "drift"), nil
	}

	mode := s.backend.FileMode(ctx, path)
	content := git.JoinLines(newLines, hadTrailingNL)
	if err := s.backend.WriteIndex(ctx, path, mode, content); err != nil {
		return nil, NewBackendError("write index", err)
	}

	lines, unstaged := s.remainingChanges(ctx, path)
	return &ApplyResult{
		Applied: []AppliedFile{{
			File:          path,
			Count:         len(selected),
			Lines:         lines,
			UnstagedLines: unstaged,
		}},
		Skipped: []SkippedChange{},
		Stats:   ApplyStats{Files: 1, ChangesApplied: len(selected), ChangesSkipped: 0},
	}, nil
}

// remainingChanges re-diffs the path after an apply and reports the fresh
// numbered listing plus the count of still-unstaged changes. The numbers
// in this listing belong to the new snapshot, not the one just consumed.
func (s *Stager) remainingChanges(ctx context.Context, path string) ([]string, int) {
	diffText, _, _, err := s.backend.DiffWithUntracked(ctx, []string{path}, UnifiedApply)
	if err != nil {
		s.logger.Error("failed to re-diff %s: %v", path, err)
		return []string{}, 0
	}
	fd := diff.Parse(diffText)[path]
	if fd == nil || fd.Binary {
		return []string{}, 0
	}
	hunks := fd.SortedHunks()
	return diff.FlattenNumbered(hunks), diff.CountChanges(hunks)
}

func skipAll(path string, numbers []int, reason string) *ApplyResult {
	skipped := make([]SkippedChange, 0, len(numbers))
	for _, n := range numbers {
		skipped = append(skipped, SkippedChange{File: path, Number: n, Reason: reason})
	}
	return &ApplyResult{
		Applied: []AppliedFile{},
		Skipped: skipped,
		Stats:   ApplyStats{Files: 0, ChangesApplied: 0, ChangesSkipped: len(numbers)},
	}
}

// OrganizeResult bundles recent commit subjects with the full change
// listing, as a starting point for splitting work into focused commits.
type OrganizeResult struct {
	RecentCommits []string    `json:"recent_commits"`
	Changes       *ListResult `json:"changes"`
}

// Organize lists every unstaged change together with recent commit
// subjects for message style reference.
func (s *Stager) Organize(ctx context.Context) (*OrganizeResult, error) {
	subjects, err := s.backend.RecentSubjects(ctx, RecentSubjectCount)
	if err != nil {
		s.logger.Error("failed to read recent commits: %v", err)
		subjects = []string{}
	}

	changes, err := s.ListChanges(ctx, nil, "", PageSizeFilesMax, 10*1024*1024, UnifiedListDefault)
	if err != nil {
		return nil, err
	}

	return &OrganizeResult{RecentCommits: subjects, Changes: changes}, nil
}
