package stager

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/syou6162/git-line-stage/internal/diff"
)

// FileListing is one file's entry in a list result
type FileListing struct {
	Path      string   `json:"path"`
	Binary    bool     `json:"binary"`
	Status    string   `json:"status"`
	Truncated bool     `json:"truncated,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Lines     []string `json:"lines"`
}

// ListStats summarizes one page of a listing
type ListStats struct {
	Files          int `json:"files"`
	Lines          int `json:"lines"`
	TruncatedFiles int `json:"truncated_files"`
	PageBytes      int `json:"page_bytes"`
}

// ListResult is one page of changed files with numbered changes
type ListResult struct {
	PageTokenNext string        `json:"page_token_next,omitempty"`
	Files         []FileListing `json:"files"`
	Stats         ListStats     `json:"stats"`
}

// DiffResult is the full, never-truncated listing for a single file
type DiffResult struct {
	Path      string   `json:"path"`
	Binary    bool     `json:"binary"`
	Status    string   `json:"status"`
	Lines     []string `json:"lines"`
	SizeBytes int      `json:"size_bytes"`
}

// ListChanges lists changed files with line-level change numbers.
//
// Pagination is primarily byte-budgeted: files are accumulated until the
// rendered listing exceeds pageSizeBytes (at least one file is always
// included), bounded by pageSizeFiles. Files whose raw diff exceeds
// MaxDiffBytes are reported truncated with empty lines; binary and
// truncated files do not count against the byte budget.
func (s *Stager) ListChanges(ctx context.Context, paths []string, pageToken string, pageSizeFiles, pageSizeBytes, unified int) (*ListResult, error) {
	diffText, untracked, deleted, err := s.backend.DiffWithUntracked(ctx, paths, unified)
	if err != nil {
		return nil, NewBackendError("diff", err)
	}

	files := diff.Parse(diffText)
	statuses := s.classifyStatuses(diffText, files, untracked, deleted)

	allPaths := make([]string, 0, len(files))
	for path := range files {
		allPaths = append(allPaths, path)
	}
	sort.Strings(allPaths)

	out := []FileListing{}
	truncatedCount := 0
	cumulativeBytes := 0
	i := decodePageToken(pageToken)

	for i < len(allPaths) {
		if len(out) >= pageSizeFiles {
			break
		}
		if cumulativeBytes > 0 && cumulativeBytes >= pageSizeBytes {
			break
		}

		path := allPaths[i]
		fd := files[path]
		status := statuses[path]

		if fd.Binary {
			out = append(out, FileListing{Path: path, Binary: true, Status: status, Lines: []string{}})
			i++
			continue
		}

		hunks := fd.SortedHunks()
		if size := diff.HunkByteSize(hunks); size > MaxDiffBytes {
			out = append(out, FileListing{
				Path:      path,
				Status:    status,
				Truncated: true,
				Reason:    fmt.Sprintf("diff too large (%.1f KB, max %d KB)", float64(size)/1024, MaxDiffBytes/1024),
				Lines:     []string{},
			})
			truncatedCount++
			i++
			continue
		}

		lines := diff.FlattenNumbered(hunks)
		out = append(out, FileListing{Path: path, Status: status, Lines: lines})
		cumulativeBytes += diff.ByteSize(lines)
		i++
	}

	result := &ListResult{Files: out}
	if i < len(allPaths) {
		result.PageTokenNext = encodePageToken(i)
	}
	lineCount := 0
	for _, f := range out {
		if !f.Binary {
			lineCount += len(f.Lines)
		}
	}
	result.Stats = ListStats{
		Files:          len(out),
		Lines:          lineCount,
		TruncatedFiles: truncatedCount,
		PageBytes:      cumulativeBytes,
	}
	return result, nil
}

// DiffFile returns the complete numbered listing for one path, regardless
// of size. It fails with a not-found error when the path has no diff.
func (s *Stager) DiffFile(ctx context.Context, path string, unified int) (*DiffResult, error) {
	diffText, untracked, deleted, err := s.backend.DiffWithUntracked(ctx, []string{path}, unified)
	if err != nil {
		return nil, NewBackendError("diff", err)
	}

	files := diff.Parse(diffText)
	fd := files[path]
	if fd == nil {
		return nil, NewNotFoundError(path)
	}
	status := s.classifyStatuses(diffText, files, untracked, deleted)[path]

	if fd.Binary {
		return &DiffResult{Path: path, Binary: true, Status: status, Lines: []string{}}, nil
	}

	lines := diff.FlattenNumbered(fd.SortedHunks())
	return &DiffResult{
		Path:      path,
		Status:    status,
		Lines:     lines,
		SizeBytes: diff.ByteSize(lines),
	}, nil
}

// classifyStatuses derives per-path statuses from the diff headers, with
// the backend's untracked/deleted enumeration taking precedence (an
// untracked file's no-index diff already reads as an addition, but the
// enumeration also covers paths the header parse missed).
func (s *Stager) classifyStatuses(diffText string, files map[string]*diff.FileDiff, untracked, deleted map[string]bool) map[string]string {
	statuses := make(map[string]string)
	infos, err := diff.Classify(diffText)
	if err != nil {
		s.logger.Debug("diff classification failed: %v", err)
		infos = map[string]diff.FileInfo{}
	}
	for path := range files {
		status := diff.StatusModified.String()
		if info, ok := infos[path]; ok {
			status = info.Status.String()
		}
		if untracked[path] {
			status = diff.StatusAdded.String()
		} else if deleted[path] {
			status = diff.StatusDeleted.String()
		}
		statuses[path] = status
	}
	return statuses
}

type pageState struct {
	FileIndex int `json:"file_index"`
}

func encodePageToken(index int) string {
	payload, _ := json.Marshal(pageState{FileIndex: index})
	return base64.RawURLEncoding.EncodeToString(payload)
}

// decodePageToken decodes an opaque page token. Any undecodable token
// restarts the listing at the first file rather than failing.
func decodePageToken(token string) int {
	if token == "" {
		return 0
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return 0
	}
	var st pageState
	if err := json.Unmarshal(payload, &st); err != nil {
		return 0
	}
	if st.FileIndex < 0 {
		return 0
	}
	return st.FileIndex
}
