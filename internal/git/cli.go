package git

import (
	"context"
	"fmt"
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/syou6162/git-line-stage/internal/executor"
	"github.com/syou6162/git-line-stage/internal/logger"
)

// DefaultFileMode is the mode used for paths with no index entry and no
// executable bit on disk.
const DefaultFileMode = "100644"

// CLIBackend implements Backend against a real repository. Content-level
// operations (diffing, object writes, index updates) shell out to git
// through the executor; repository-level reads (references, revision
// resolution, commit log) go through go-git.
type CLIBackend struct {
	executor executor.CommandExecutor
	repo     *gogit.Repository
	logger   *logger.Logger
}

// NewCLIBackend opens the repository containing the working directory
func NewCLIBackend(exec executor.CommandExecutor) (*CLIBackend, error) {
	repo, err := gogit.PlainOpenWithOptions(".", &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &CLIBackend{
		executor: exec,
		repo:     repo,
		logger:   logger.NewFromEnv(),
	}, nil
}

// DiffWithUntracked implements Backend.DiffWithUntracked
func (b *CLIBackend) DiffWithUntracked(ctx context.Context, paths []string, unified int) (string, map[string]bool, map[string]bool, error) {
	diffArgs := []string{"diff", "--patch", fmt.Sprintf("--unified=%d", unified), "--no-color", "--no-ext-diff", "--find-renames=50%"}
	if len(paths) > 0 {
		diffArgs = append(diffArgs, "--")
		diffArgs = append(diffArgs, paths...)
	}
	diffOut, err := b.executor.Execute(ctx, "git", diffArgs...)
	if err != nil {
		return "", nil, nil, fmt.Errorf("failed to get diff: %w", err)
	}
	diffText := string(diffOut)

	untracked := b.listPaths(ctx, paths, "--others", "--exclude-standard")
	deleted := b.listPaths(ctx, paths, "--deleted")

	// Untracked files do not appear in git diff; synthesize a pure-addition
	// diff for each one against /dev/null.
	for path := range untracked {
		out, err := b.executor.Execute(ctx, "git", "diff", "--no-index",
			fmt.Sprintf("--unified=%d", unified), "--no-color", "/dev/null", path)
		// git diff --no-index exits 1 when the contents differ
		if len(out) == 0 && err != nil {
			b.logger.Debug("skipping undiffable untracked file: %s", path)
			continue
		}
		if strings.TrimSpace(string(out)) != "" {
			diffText += "\n" + string(out)
		}
	}

	return diffText, untracked, deleted, nil
}

func (b *CLIBackend) listPaths(ctx context.Context, paths []string, flags ...string) map[string]bool {
	args := append([]string{"ls-files"}, flags...)
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	out, err := b.executor.Execute(ctx, "git", args...)
	if err != nil {
		return map[string]bool{}
	}
	result := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		if line != "" {
			result[line] = true
		}
	}
	return result
}

// ReadIndexText implements Backend.ReadIndexText
func (b *CLIBackend) ReadIndexText(ctx context.Context, path string) ([]string, bool, error) {
	out, err := b.executor.Execute(ctx, "git", "show", ":"+path)
	if err != nil {
		// No index entry yet (untracked file): empty content
		return nil, false, nil
	}
	lines, trailing := SplitLines(string(out))
	return lines, trailing, nil
}

// WriteIndex implements Backend.WriteIndex
func (b *CLIBackend) WriteIndex(ctx context.Context, path, mode, content string) error {
	oid, err := b.hashObject(ctx, content)
	if err != nil {
		return err
	}
	_, err = b.executor.Execute(ctx, "git", "update-index", "--add", "--cacheinfo", mode, oid, path)
	if err != nil {
		return fmt.Errorf("failed to update index for %s: %w", path, err)
	}
	return nil
}

func (b *CLIBackend) hashObject(ctx context.Context, content string) (string, error) {
	out, err := b.executor.ExecuteWithStdin(ctx, "git", strings.NewReader(content), "hash-object", "-w", "--stdin")
	if err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// FileMode implements Backend.FileMode
func (b *CLIBackend) FileMode(ctx context.Context, path string) string {
	out, err := b.executor.Execute(ctx, "git", "ls-files", "-s", "--", path)
	if err == nil {
		fields := strings.Fields(strings.TrimSpace(string(out)))
		if len(fields) >= 4 {
			return fields[0]
		}
	}
	if st, err := os.Stat(path); err == nil && st.Mode()&0o100 != 0 {
		return "100755"
	}
	return DefaultFileMode
}

// ResolveRevision implements Backend.ResolveRevision
func (b *CLIBackend) ResolveRevision(ctx context.Context, rev string) (string, error) {
	hash, err := b.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	return hash.String(), nil
}

// CommitPatch implements Backend.CommitPatch
func (b *CLIBackend) CommitPatch(ctx context.Context, commit string) (string, error) {
	out, err := b.executor.Execute(ctx, "git", "diff-tree", "--no-commit-id", "--patch",
		"--unified=3", "--no-color", "--root", commit)
	if err != nil {
		return "", fmt.Errorf("failed to derive patch for %s: %w", commit, err)
	}
	return string(out), nil
}

// ShowFile implements Backend.ShowFile
func (b *CLIBackend) ShowFile(ctx context.Context, rev, path string) ([]string, bool, error) {
	out, err := b.executor.Execute(ctx, "git", "show", rev+":"+path)
	if err != nil {
		// Path absent at that revision: empty content
		return nil, false, nil
	}
	lines, trailing := SplitLines(string(out))
	return lines, trailing, nil
}

// BranchExists implements Backend.BranchExists
func (b *CLIBackend) BranchExists(ctx context.Context, name string) (bool, error) {
	_, err := b.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err == plumbing.ErrReferenceNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", name, err)
	}
	return true, nil
}

// CreateBranch implements Backend.CreateBranch
//
// The commit is built through a temporary index so the real index and the
// worktree stay untouched: read the parent tree, overlay the replayed file
// contents, write the tree, commit it and point the branch ref at the
// result.
func (b *CLIBackend) CreateBranch(ctx context.Context, name, parent, message string, files map[string]FileContent) (string, error) {
	tmp, err := os.CreateTemp("", "git-line-stage-index-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp index: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	env := []string{"GIT_INDEX_FILE=" + tmpPath}

	if _, err := b.executor.ExecuteWithEnv(ctx, env, "git", "read-tree", parent); err != nil {
		return "", fmt.Errorf("failed to read parent tree: %w", err)
	}

	for path, fc := range files {
		if fc.Deleted {
			if _, err := b.executor.ExecuteWithEnv(ctx, env, "git", "update-index", "--force-remove", "--", path); err != nil {
				return "", fmt.Errorf("failed to remove %s from temp index: %w", path, err)
			}
			continue
		}
		oid, err := b.hashObject(ctx, JoinLines(fc.Lines, fc.TrailingNewline))
		if err != nil {
			return "", err
		}
		mode := b.treeMode(ctx, parent, path)
		if _, err := b.executor.ExecuteWithEnv(ctx, env, "git", "update-index", "--add", "--cacheinfo", mode, oid, path); err != nil {
			return "", fmt.Errorf("failed to stage %s in temp index: %w", path, err)
		}
	}

	treeOut, err := b.executor.ExecuteWithEnv(ctx, env, "git", "write-tree")
	if err != nil {
		return "", fmt.Errorf("failed to write tree: %w", err)
	}
	tree := strings.TrimSpace(string(treeOut))

	commitOut, err := b.executor.Execute(ctx, "git", "commit-tree", tree, "-p", parent, "-m", message)
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	commit := strings.TrimSpace(string(commitOut))

	if _, err := b.executor.Execute(ctx, "git", "update-ref", "refs/heads/"+name, commit); err != nil {
		return "", fmt.Errorf("failed to create branch ref %s: %w", name, err)
	}

	return commit, nil
}

// treeMode resolves the mode a path has in the parent tree, falling back
// to the default blob mode for paths new to the branch.
func (b *CLIBackend) treeMode(ctx context.Context, parent, path string) string {
	out, err := b.executor.Execute(ctx, "git", "ls-tree", parent, "--", path)
	if err == nil {
		fields := strings.Fields(strings.TrimSpace(string(out)))
		if len(fields) >= 4 {
			return fields[0]
		}
	}
	return DefaultFileMode
}

// RecentSubjects implements Backend.RecentSubjects
func (b *CLIBackend) RecentSubjects(ctx context.Context, limit int) ([]string, error) {
	head, err := b.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	iter, err := b.repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("failed to read commit log: %w", err)
	}
	defer iter.Close()

	var subjects []string
	err = iter.ForEach(func(c *object.Commit) error {
		if len(subjects) >= limit {
			return storer.ErrStop
		}
		if c.NumParents() > 1 {
			return nil
		}
		subject := c.Message
		if i := strings.IndexByte(subject, '\n'); i >= 0 {
			subject = subject[:i]
		}
		if subject = strings.TrimSpace(subject); subject != "" {
			subjects = append(subjects, subject)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit log: %w", err)
	}
	return subjects, nil
}
