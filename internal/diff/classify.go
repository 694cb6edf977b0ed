package diff

import (
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// FileStatus represents the modification status of a file in a diff
type FileStatus int

const (
	StatusModified FileStatus = iota
	StatusAdded
	StatusDeleted
	StatusRenamed
)

// String returns the string representation of FileStatus
func (fs FileStatus) String() string {
	switch fs {
	case StatusModified:
		return "modified"
	case StatusAdded:
		return "added"
	case StatusDeleted:
		return "deleted"
	case StatusRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileInfo is the per-file classification derived from diff headers
type FileInfo struct {
	Status  FileStatus
	Binary  bool
	OldPath string
}

// Classify parses diff text with go-gitdiff and reports each file's
// status and binary flag, keyed by the file's target path (old path for
// deletions). It complements Parse, which only models hunk content.
func Classify(diffText string) (map[string]FileInfo, error) {
	result := make(map[string]FileInfo)
	if strings.TrimSpace(diffText) == "" {
		return result, nil
	}

	files, _, err := gitdiff.Parse(strings.NewReader(diffText))
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		info := FileInfo{Binary: file.IsBinary, OldPath: file.OldName}
		path := file.NewName
		switch {
		case file.IsDelete:
			info.Status = StatusDeleted
			path = file.OldName
		case file.IsNew:
			info.Status = StatusAdded
			info.OldPath = ""
		case file.IsRename:
			info.Status = StatusRenamed
		default:
			info.Status = StatusModified
		}
		result[path] = info
	}

	return result, nil
}
