package testutils

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RunCommand executes a command in the specified directory
func RunCommand(t *testing.T, dir string, command string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(command, args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// CreateTestRepo creates a temporary directory with an initialized git repository
func CreateTestRepo(t *testing.T, prefix string) (string, *git.Repository, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", prefix)
	if err != nil {
		t.Fatal(err)
	}

	repo, err := git.PlainInit(tmpDir, false)
	if err != nil {
		t.Fatal(err)
	}

	cleanup := func() {
		os.RemoveAll(tmpDir)
	}

	return tmpDir, repo, cleanup
}

// SetupTestDir changes to the test directory and returns a cleanup function
func SetupTestDir(t *testing.T, dir string) func() {
	t.Helper()

	originalDir, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	return func() {
		os.Chdir(originalDir)
	}
}

// CreateAndCommitFile creates a file with the given content and commits it
func CreateAndCommitFile(t *testing.T, dir string, repo *git.Repository, filename, content, message string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	w, _ := repo.Worktree()
	w.Add(filename)

	_, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test User",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})

	if err != nil {
		t.Fatal(err)
	}
}

// WriteFile overwrites a file in the working tree without staging it
func WriteFile(t *testing.T, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filename, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// StagedContent returns a path's content as staged in the index
func StagedContent(t *testing.T, dir, path string) string {
	t.Helper()
	out, err := RunCommand(t, dir, "git", "show", ":"+path)
	if err != nil {
		t.Fatalf("failed to read staged content of %s: %v\n%s", path, err, out)
	}
	return out
}

// CreateFileWithManyEdits commits a file of numbered sections, then rewrites
// every other section in the working tree so the diff spreads across many
// hunks. Useful for pagination and truncation scenarios.
func CreateFileWithManyEdits(t *testing.T, dir string, repo *git.Repository, filename string, sections int) {
	t.Helper()

	var initial strings.Builder
	for i := 0; i < sections; i++ {
		writeSection(&initial, i, "initial")
	}
	CreateAndCommitFile(t, dir, repo, filename, initial.String(), "Add "+filename)

	var modified strings.Builder
	for i := 0; i < sections; i++ {
		if i%2 == 0 {
			writeSection(&modified, i, "modified")
		} else {
			writeSection(&modified, i, "initial")
		}
	}
	WriteFile(t, filename, modified.String())
}

func writeSection(b *strings.Builder, index int, version string) {
	fmt.Fprintf(b, "# section %d (%s)\n", index, version)
	for line := 0; line < 8; line++ {
		fmt.Fprintf(b, "section %d %s line %d\n", index, version, line)
	}
	b.WriteString("\n")
}
