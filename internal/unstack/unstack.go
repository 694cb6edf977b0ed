// Package unstack replays ordered sets of commit patches onto an
// alternate parent to materialize independent branches. Replay reuses the
// selective patcher in full-selection mode, so "commit B depends on
// commit A" surfaces as a drift failure when B is replayed without A.
package unstack

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/syou6162/git-line-stage/internal/diff"
	"github.com/syou6162/git-line-stage/internal/git"
	"github.com/syou6162/git-line-stage/internal/logger"
	"github.com/syou6162/git-line-stage/internal/stager"
)

// BranchSpec describes one replay attempt: the branch to create, the
// commits to replay in order, and the parent revision to replay onto.
// An empty Parent falls back to the request-level parent.
type BranchSpec struct {
	Branch  string   `json:"branch"`
	Commits []string `json:"commits"`
	Parent  string   `json:"parent,omitempty"`
}

// Status is the terminal state of one branch evaluation
type Status string

const (
	// StatusCommitted means every commit applied and the branch was created
	StatusCommitted Status = "committed"
	// StatusConflict means a commit's patch drifted against the
	// accumulated content; the branch was discarded whole
	StatusConflict Status = "conflict"
	// StatusNameTaken means the branch name already exists; no replay was
	// attempted
	StatusNameTaken Status = "branch_exists"
	// StatusError means a backend operation failed for this branch
	StatusError Status = "error"
)

// BranchResult is the outcome of one branch specification
type BranchResult struct {
	Branch       string   `json:"branch"`
	Status       Status   `json:"status"`
	Commit       string   `json:"commit,omitempty"`
	Applied      []string `json:"applied,omitempty"`
	FailedCommit string   `json:"failed_commit,omitempty"`
	FailedIndex  int      `json:"failed_index,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Analyzer evaluates branch specifications independently against a backend
type Analyzer struct {
	backend git.Backend
	logger  *logger.Logger
}

// NewAnalyzer creates a new analyzer on top of a backend
func NewAnalyzer(backend git.Backend) *Analyzer {
	return &Analyzer{
		backend: backend,
		logger:  logger.NewFromEnv(),
	}
}

// ValidateSpecs checks branch specifications before any backend call.
// Every branch needs a name, at least one commit and a parent (its own or
// the request-level default); target names must not repeat within one
// request.
func ValidateSpecs(specs []BranchSpec, defaultParent string) error {
	if len(specs) == 0 {
		return stager.NewParseError("at least one branch specification is required", nil)
	}
	seen := make(map[string]bool)
	for _, spec := range specs {
		if strings.TrimSpace(spec.Branch) == "" {
			return stager.NewParseError("branch name cannot be empty", nil)
		}
		if seen[spec.Branch] {
			return stager.NewParseError("duplicate branch name: "+spec.Branch, nil)
		}
		seen[spec.Branch] = true
		if len(spec.Commits) == 0 {
			return stager.NewParseError("branch "+spec.Branch+" has no commits", nil)
		}
		for _, commit := range spec.Commits {
			if strings.TrimSpace(commit) == "" {
				return stager.NewParseError("branch "+spec.Branch+" has an empty commit identifier", nil)
			}
		}
		if spec.Parent == "" && defaultParent == "" {
			return stager.NewParseError("branch "+spec.Branch+" has no parent revision", nil)
		}
	}
	return nil
}

// Run evaluates every branch specification and returns one result per
// branch, in input order. Branches are independent: each starts from the
// parent's snapshot and one branch's failure never affects another.
func (a *Analyzer) Run(ctx context.Context, specs []BranchSpec, defaultParent string) []BranchResult {
	results := make([]BranchResult, 0, len(specs))
	for _, spec := range specs {
		results = append(results, a.runBranch(ctx, spec, defaultParent))
	}
	return results
}

// fileState is one file's content threaded through a branch's replay
type fileState struct {
	lines    []string
	trailing bool
	deleted  bool
}

func (a *Analyzer) runBranch(ctx context.Context, spec BranchSpec, defaultParent string) BranchResult {
	result := BranchResult{Branch: spec.Branch}

	parent := spec.Parent
	if parent == "" {
		parent = defaultParent
	}
	parentID, err := a.backend.ResolveRevision(ctx, parent)
	if err != nil {
		result.Status = StatusError
		result.Reason = err.Error()
		return result
	}

	// Naming pre-check comes before any replay attempt
	exists, err := a.backend.BranchExists(ctx, spec.Branch)
	if err != nil {
		result.Status = StatusError
		result.Reason = err.Error()
		return result
	}
	if exists {
		result.Status = StatusNameTaken
		result.Reason = stager.NewNamingConflictError(spec.Branch).Error()
		return result
	}

	state := make(map[string]*fileState)
	for i, commit := range spec.Commits {
		if err := a.applyCommit(ctx, state, parentID, commit); err != nil {
			a.logger.Info("branch %s: commit %s did not apply: %v", spec.Branch, commit, err)
			result.Status = StatusConflict
			result.FailedCommit = commit
			result.FailedIndex = i
			result.Reason = err.Error()
			return result
		}
		result.Applied = append(result.Applied, commit)
	}

	files := make(map[string]git.FileContent, len(state))
	for path, st := range state {
		files[path] = git.FileContent{Lines: st.lines, TrailingNewline: st.trailing, Deleted: st.deleted}
	}
	message := fmt.Sprintf("Unstack %s (%d commits onto %s)", spec.Branch, len(spec.Commits), parent)
	commitID, err := a.backend.CreateBranch(ctx, spec.Branch, parentID, message, files)
	if err != nil {
		result.Status = StatusError
		result.Applied = nil
		result.Reason = err.Error()
		return result
	}

	result.Status = StatusCommitted
	result.Commit = commitID
	return result
}

// applyCommit replays one commit's own patch (against its original
// predecessor) onto the branch's accumulated content in full-selection
// mode. The first drift aborts the commit, and with it the branch.
func (a *Analyzer) applyCommit(ctx context.Context, state map[string]*fileState, parentID, commit string) error {
	patch, err := a.backend.CommitPatch(ctx, commit)
	if err != nil {
		return err
	}

	infos, err := diff.Classify(patch)
	if err != nil {
		a.logger.Debug("commit %s: classification failed: %v", commit, err)
		infos = map[string]diff.FileInfo{}
	}

	files := diff.Parse(patch)
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		fd := files[path]
		if fd.Binary {
			return stager.NewBinaryError(path)
		}
		info := infos[path]

		st, err := a.fileStateFor(ctx, state, parentID, path, info)
		if err != nil {
			return err
		}

		hunks := fd.SortedHunks()
		newLines, err := stager.ApplySelected(st.lines, hunks, stager.FullSelection(hunks))
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		st.lines = newLines
		switch info.Status {
		case diff.StatusDeleted:
			st.deleted = true
		case diff.StatusAdded:
			st.deleted = false
			st.trailing = true
		default:
			st.deleted = false
		}
	}

	return nil
}

// fileStateFor returns the accumulated state for a path, seeding it from
// the parent snapshot on first touch. A rename seeds from the old path's
// state and leaves a deletion behind at the old path.
func (a *Analyzer) fileStateFor(ctx context.Context, state map[string]*fileState, parentID, path string, info diff.FileInfo) (*fileState, error) {
	if st, ok := state[path]; ok {
		return st, nil
	}

	if info.Status == diff.StatusRenamed && info.OldPath != "" && info.OldPath != path {
		old, err := a.fileStateFor(ctx, state, parentID, info.OldPath, diff.FileInfo{})
		if err != nil {
			return nil, err
		}
		st := &fileState{lines: append([]string(nil), old.lines...), trailing: old.trailing}
		old.lines = nil
		old.deleted = true
		state[path] = st
		return st, nil
	}

	lines, trailing, err := a.backend.ShowFile(ctx, parentID, path)
	if err != nil {
		return nil, err
	}
	st := &fileState{lines: lines, trailing: trailing}
	state[path] = st
	return st, nil
}
