package stager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/syou6162/git-line-stage/internal/git"
)

const twoFileDiff = `diff --git a/alpha.txt b/alpha.txt
index 1111111..2222222 100644
--- a/alpha.txt
+++ b/alpha.txt
@@ -1,2 +1,2 @@
 keep
-old alpha
+new alpha
diff --git a/beta.txt b/beta.txt
new file mode 100644
index 0000000..3333333
--- /dev/null
+++ b/beta.txt
@@ -0,0 +1 @@
+hello beta
`

func TestListChanges_Basic(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = twoFileDiff
	backend.Untracked["beta.txt"] = true

	result, err := NewStager(backend).ListChanges(context.Background(), nil, "", PageSizeFilesDefault, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}

	if len(result.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(result.Files))
	}
	// Paths come back sorted
	if result.Files[0].Path != "alpha.txt" || result.Files[1].Path != "beta.txt" {
		t.Errorf("paths = %s, %s", result.Files[0].Path, result.Files[1].Path)
	}
	if result.Files[0].Status != "modified" {
		t.Errorf("alpha.txt status = %q, want modified", result.Files[0].Status)
	}
	if result.Files[1].Status != "added" {
		t.Errorf("beta.txt status = %q, want added", result.Files[1].Status)
	}
	wantAlpha := []string{
		"        keep",
		"0001: - old alpha",
		"0002: + new alpha",
	}
	for i, want := range wantAlpha {
		if result.Files[0].Lines[i] != want {
			t.Errorf("alpha line %d = %q, want %q", i, result.Files[0].Lines[i], want)
		}
	}
	if result.PageTokenNext != "" {
		t.Errorf("everything fits one page, got token %q", result.PageTokenNext)
	}
	if result.Stats.Files != 2 || result.Stats.TruncatedFiles != 0 {
		t.Errorf("stats = %+v", result.Stats)
	}
}

func TestListChanges_DeletedStatusOverride(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = `diff --git a/gone.txt b/gone.txt
deleted file mode 100644
index 1111111..0000000
--- a/gone.txt
+++ /dev/null
@@ -1 +0,0 @@
-bye
`
	backend.Deleted["gone.txt"] = true

	result, err := NewStager(backend).ListChanges(context.Background(), nil, "", PageSizeFilesDefault, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if result.Files[0].Status != "deleted" {
		t.Errorf("status = %q, want deleted", result.Files[0].Status)
	}
}

func TestListChanges_PaginationByFileCount(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = twoFileDiff

	stager := NewStager(backend)
	first, err := stager.ListChanges(context.Background(), nil, "", 1, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("first page error = %v", err)
	}
	if len(first.Files) != 1 || first.Files[0].Path != "alpha.txt" {
		t.Fatalf("first page = %+v", first.Files)
	}
	if first.PageTokenNext == "" {
		t.Fatal("expected a continuation token")
	}

	second, err := stager.ListChanges(context.Background(), nil, first.PageTokenNext, 1, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("second page error = %v", err)
	}
	if len(second.Files) != 1 || second.Files[0].Path != "beta.txt" {
		t.Fatalf("second page = %+v", second.Files)
	}
	if second.PageTokenNext != "" {
		t.Errorf("final page must carry no token, got %q", second.PageTokenNext)
	}
}

func TestListChanges_ByteBudgetStillIncludesFirstFile(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = twoFileDiff

	// A one-byte budget can never fit a file; the page must still make
	// progress by including one.
	result, err := NewStager(backend).ListChanges(context.Background(), nil, "", PageSizeFilesDefault, 1, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(result.Files) != 1 {
		t.Fatalf("expected exactly 1 file on an exhausted budget, got %d", len(result.Files))
	}
	if result.PageTokenNext == "" {
		t.Error("expected a continuation token")
	}
}

func TestListChanges_InvalidTokenRestartsFromFirstFile(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = twoFileDiff

	result, err := NewStager(backend).ListChanges(context.Background(), nil, "not-a-token!!!", PageSizeFilesDefault, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(result.Files) != 2 || result.Files[0].Path != "alpha.txt" {
		t.Errorf("invalid token must restart at the first file, got %+v", result.Files)
	}
}

func TestListChanges_OversizedDiffTruncated(t *testing.T) {
	lineCount := 400
	var b strings.Builder
	b.WriteString("diff --git a/big.txt b/big.txt\n")
	b.WriteString("new file mode 100644\n")
	b.WriteString("index 0000000..1111111\n")
	b.WriteString("--- /dev/null\n")
	b.WriteString("+++ b/big.txt\n")
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", lineCount)
	for i := 0; i < lineCount; i++ {
		fmt.Fprintf(&b, "+this is generated content line number %04d\n", i)
	}

	backend := git.NewMemoryBackend()
	backend.DiffText = b.String()

	result, err := NewStager(backend).ListChanges(context.Background(), nil, "", PageSizeFilesDefault, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	f := result.Files[0]
	if !f.Truncated {
		t.Fatal("oversized diff must be truncated")
	}
	if len(f.Lines) != 0 {
		t.Errorf("truncated file must carry no lines, got %d", len(f.Lines))
	}
	if !strings.Contains(f.Reason, "diff too large") {
		t.Errorf("reason = %q", f.Reason)
	}
	if result.Stats.TruncatedFiles != 1 {
		t.Errorf("truncated count = %d, want 1", result.Stats.TruncatedFiles)
	}
}

func TestListChanges_BinaryFileListedWithoutLines(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffText = `diff --git a/logo.png b/logo.png
index 1234567..89abcde 100644
Binary files a/logo.png and b/logo.png differ
`

	result, err := NewStager(backend).ListChanges(context.Background(), nil, "", PageSizeFilesDefault, PageSizeBytesDefault, UnifiedListDefault)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	f := result.Files[0]
	if !f.Binary || len(f.Lines) != 0 {
		t.Errorf("binary listing = %+v", f)
	}
	if result.Stats.PageBytes != 0 {
		t.Errorf("binary files must not count against the byte budget, got %d", result.Stats.PageBytes)
	}
}

func TestDiffFile(t *testing.T) {
	backend := git.NewMemoryBackend()
	backend.DiffByPaths["alpha.txt"] = `diff --git a/alpha.txt b/alpha.txt
index 1111111..2222222 100644
--- a/alpha.txt
+++ b/alpha.txt
@@ -1,2 +1,2 @@
 keep
-old alpha
+new alpha
`

	result, err := NewStager(backend).DiffFile(context.Background(), "alpha.txt", UnifiedListDefault)
	if err != nil {
		t.Fatalf("DiffFile() error = %v", err)
	}
	if result.Path != "alpha.txt" || result.Status != "modified" {
		t.Errorf("result = %+v", result)
	}
	if len(result.Lines) != 3 {
		t.Errorf("expected 3 listing lines, got %d", len(result.Lines))
	}
	if result.SizeBytes == 0 {
		t.Error("size must reflect the rendered listing")
	}
}

func TestDiffFile_UnknownPath(t *testing.T) {
	backend := git.NewMemoryBackend()

	_, err := NewStager(backend).DiffFile(context.Background(), "nope.txt", UnifiedListDefault)
	var se *StageError
	if !errors.As(err, &se) || se.Type != ErrorTypeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestPageTokenRoundTrip(t *testing.T) {
	for _, index := range []int{0, 1, 7, 1000} {
		if got := decodePageToken(encodePageToken(index)); got != index {
			t.Errorf("round trip of %d = %d", index, got)
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "%%%"},
		{name: "valid base64 invalid json", token: "bm90LWpzb24"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := decodePageToken(tt.token); got != 0 {
				t.Errorf("decodePageToken(%q) = %d, want 0", tt.token, got)
			}
		})
	}
}
