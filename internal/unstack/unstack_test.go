package unstack

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/syou6162/git-line-stage/internal/git"
)

// patchB rewrites line 2 against the parent snapshot; patchC appends
// line 4 against the content patchB produced, so C textually depends on B.
const patchB = `diff --git a/file.txt b/file.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/file.txt
@@ -1,3 +1,3 @@
 line 1
-line 2
+line 2 changed
 line 3
`

const patchC = `diff --git a/file.txt b/file.txt
index 2222222..3333333 100644
--- a/file.txt
+++ b/file.txt
@@ -1,3 +1,4 @@
 line 1
 line 2 changed
 line 3
+line 4
`

func stackedBackend() *git.MemoryBackend {
	backend := git.NewMemoryBackend()
	backend.Refs["main"] = "aaa111"
	backend.Commits["aaa111"] = git.MemoryCommit{
		Files: map[string]string{"file.txt": "line 1\nline 2\nline 3\n"},
	}
	backend.Commits["bbb222"] = git.MemoryCommit{Patch: patchB}
	backend.Commits["ccc333"] = git.MemoryCommit{Patch: patchC}
	return backend
}

func TestRun_DependentCommitsInOrder(t *testing.T) {
	backend := stackedBackend()
	specs := []BranchSpec{
		{Branch: "feature", Commits: []string{"bbb222", "ccc333"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.Status != StatusCommitted {
		t.Fatalf("status = %q (%s), want committed", r.Status, r.Reason)
	}
	if r.Commit != "commit-feature" {
		t.Errorf("commit = %q", r.Commit)
	}
	if !reflect.DeepEqual(r.Applied, []string{"bbb222", "ccc333"}) {
		t.Errorf("applied = %v", r.Applied)
	}

	if len(backend.Created) != 1 {
		t.Fatalf("expected 1 created branch, got %d", len(backend.Created))
	}
	created := backend.Created[0]
	if created.Name != "feature" || created.Parent != "aaa111" {
		t.Errorf("created = %+v", created)
	}
	want := []string{"line 1", "line 2 changed", "line 3", "line 4"}
	if !reflect.DeepEqual(created.Files["file.txt"].Lines, want) {
		t.Errorf("materialized content = %v, want %v", created.Files["file.txt"].Lines, want)
	}
}

func TestRun_DependentCommitWithoutItsBaseConflicts(t *testing.T) {
	backend := stackedBackend()
	specs := []BranchSpec{
		{Branch: "just-c", Commits: []string{"ccc333"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	r := results[0]
	if r.Status != StatusConflict {
		t.Fatalf("status = %q, want conflict", r.Status)
	}
	if r.FailedCommit != "ccc333" || r.FailedIndex != 0 {
		t.Errorf("failure = commit %q at index %d", r.FailedCommit, r.FailedIndex)
	}
	if r.Reason == "" {
		t.Error("conflict must carry a reason")
	}
	if len(backend.Created) != 0 {
		t.Errorf("conflicting branch must not be created, got %v", backend.Created)
	}
}

func TestRun_IndependentCommitAlone(t *testing.T) {
	backend := stackedBackend()
	specs := []BranchSpec{
		{Branch: "just-b", Commits: []string{"bbb222"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	r := results[0]
	if r.Status != StatusCommitted {
		t.Fatalf("status = %q (%s), want committed", r.Status, r.Reason)
	}
	want := []string{"line 1", "line 2 changed", "line 3"}
	if !reflect.DeepEqual(backend.Created[0].Files["file.txt"].Lines, want) {
		t.Errorf("materialized content = %v, want %v", backend.Created[0].Files["file.txt"].Lines, want)
	}
}

func TestRun_NameTakenSkipsReplayEntirely(t *testing.T) {
	backend := stackedBackend()
	backend.Branches["taken"] = "zzz999"
	specs := []BranchSpec{
		{Branch: "taken", Commits: []string{"bbb222"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	r := results[0]
	if r.Status != StatusNameTaken {
		t.Fatalf("status = %q, want branch_exists", r.Status)
	}
	if backend.PatchRequests != 0 {
		t.Errorf("naming pre-check must run before any replay, saw %d patch requests", backend.PatchRequests)
	}
	if len(backend.Created) != 0 {
		t.Error("no branch must be created")
	}
}

func TestRun_UnknownParentIsError(t *testing.T) {
	backend := stackedBackend()
	specs := []BranchSpec{
		{Branch: "feature", Commits: []string{"bbb222"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "no-such-rev")
	if results[0].Status != StatusError {
		t.Fatalf("status = %q, want error", results[0].Status)
	}
}

func TestRun_BranchesAreIndependent(t *testing.T) {
	backend := stackedBackend()
	specs := []BranchSpec{
		{Branch: "doomed", Commits: []string{"ccc333"}},
		{Branch: "fine", Commits: []string{"bbb222"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	if results[0].Status != StatusConflict {
		t.Errorf("first branch status = %q, want conflict", results[0].Status)
	}
	if results[1].Status != StatusCommitted {
		t.Errorf("second branch status = %q (%s), want committed", results[1].Status, results[1].Reason)
	}
	if len(backend.Created) != 1 || backend.Created[0].Name != "fine" {
		t.Errorf("created = %v", backend.Created)
	}
}

func TestRun_BranchParentOverridesDefault(t *testing.T) {
	backend := stackedBackend()
	backend.Refs["develop"] = "ddd444"
	backend.Commits["ddd444"] = git.MemoryCommit{
		Files: map[string]string{"file.txt": "line 1\nline 2\nline 3\n"},
	}
	specs := []BranchSpec{
		{Branch: "feature", Commits: []string{"bbb222"}, Parent: "develop"},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	if results[0].Status != StatusCommitted {
		t.Fatalf("status = %q (%s)", results[0].Status, results[0].Reason)
	}
	if backend.Created[0].Parent != "ddd444" {
		t.Errorf("parent = %q, want the branch-local override", backend.Created[0].Parent)
	}
}

func TestRun_DeletionCommit(t *testing.T) {
	backend := stackedBackend()
	backend.Commits["del555"] = git.MemoryCommit{Patch: `diff --git a/file.txt b/file.txt
deleted file mode 100644
index 1111111..0000000
--- a/file.txt
+++ /dev/null
@@ -1,3 +0,0 @@
-line 1
-line 2
-line 3
`}
	specs := []BranchSpec{
		{Branch: "cleanup", Commits: []string{"del555"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	if results[0].Status != StatusCommitted {
		t.Fatalf("status = %q (%s)", results[0].Status, results[0].Reason)
	}
	fc := backend.Created[0].Files["file.txt"]
	if !fc.Deleted {
		t.Error("file must be marked deleted in the materialized snapshot")
	}
	if len(fc.Lines) != 0 {
		t.Errorf("deleted file must carry no lines, got %v", fc.Lines)
	}
}

func TestRun_RenameCommit(t *testing.T) {
	backend := stackedBackend()
	backend.Commits["ren666"] = git.MemoryCommit{Patch: `diff --git a/file.txt b/renamed.txt
similarity index 90%
rename from file.txt
rename to renamed.txt
index 1111111..2222222 100644
--- a/file.txt
+++ b/renamed.txt
@@ -1,3 +1,3 @@
 line 1
-line 2
+line two
 line 3
`}
	specs := []BranchSpec{
		{Branch: "rename", Commits: []string{"ren666"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	if results[0].Status != StatusCommitted {
		t.Fatalf("status = %q (%s)", results[0].Status, results[0].Reason)
	}
	files := backend.Created[0].Files
	want := []string{"line 1", "line two", "line 3"}
	if !reflect.DeepEqual(files["renamed.txt"].Lines, want) {
		t.Errorf("renamed content = %v, want %v", files["renamed.txt"].Lines, want)
	}
	if !files["file.txt"].Deleted {
		t.Error("the old path must be recorded as deleted")
	}
}

func TestRun_BinaryPatchConflicts(t *testing.T) {
	backend := stackedBackend()
	backend.Commits["bin777"] = git.MemoryCommit{Patch: `diff --git a/logo.png b/logo.png
index 1234567..89abcde 100644
Binary files a/logo.png and b/logo.png differ
`}
	specs := []BranchSpec{
		{Branch: "binary", Commits: []string{"bin777"}},
	}

	results := NewAnalyzer(backend).Run(context.Background(), specs, "main")
	r := results[0]
	if r.Status != StatusConflict {
		t.Fatalf("status = %q, want conflict", r.Status)
	}
	if !strings.Contains(r.Reason, "binary") {
		t.Errorf("reason = %q, want a binary mention", r.Reason)
	}
}

func TestValidateSpecs(t *testing.T) {
	tests := []struct {
		name          string
		specs         []BranchSpec
		defaultParent string
		wantError     bool
	}{
		{
			name:          "valid with default parent",
			specs:         []BranchSpec{{Branch: "a", Commits: []string{"c1"}}},
			defaultParent: "main",
		},
		{
			name:  "valid with per-branch parent",
			specs: []BranchSpec{{Branch: "a", Commits: []string{"c1"}, Parent: "main"}},
		},
		{
			name:          "no specs",
			defaultParent: "main",
			wantError:     true,
		},
		{
			name:          "empty branch name",
			specs:         []BranchSpec{{Branch: "  ", Commits: []string{"c1"}}},
			defaultParent: "main",
			wantError:     true,
		},
		{
			name: "duplicate branch name",
			specs: []BranchSpec{
				{Branch: "a", Commits: []string{"c1"}},
				{Branch: "a", Commits: []string{"c2"}},
			},
			defaultParent: "main",
			wantError:     true,
		},
		{
			name:          "no commits",
			specs:         []BranchSpec{{Branch: "a"}},
			defaultParent: "main",
			wantError:     true,
		},
		{
			name:          "empty commit identifier",
			specs:         []BranchSpec{{Branch: "a", Commits: []string{""}}},
			defaultParent: "main",
			wantError:     true,
		},
		{
			name:      "no parent anywhere",
			specs:     []BranchSpec{{Branch: "a", Commits: []string{"c1"}}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSpecs(tt.specs, tt.defaultParent)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateSpecs() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
