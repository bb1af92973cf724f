package filesystem

import (
	"errors"
	"time"
)

// Entry types reported in listings
const (
	TypeDirectory = 0
	TypeFile      = 1
)

var (
	// ErrOutsideRoot is returned for paths escaping the instance root
	ErrOutsideRoot = errors.New("path is outside the instance root")
	// ErrNotDirectory is returned when navigating into a non-directory
	ErrNotDirectory = errors.New("not a directory")
	// ErrTooLarge is returned when reading a file above the edit limit
	ErrTooLarge = errors.New("file too large to edit")
	// ErrNotText is returned when reading a binary file for editing
	ErrNotText = errors.New("file is not a text file")
	// ErrRootProtected is returned when deleting or moving the root itself
	ErrRootProtected = errors.New("instance root cannot be modified")
	// ErrSameFile is returned when a copy source and destination are one file
	ErrSameFile = errors.New("source and destination are the same file")
	// ErrUnsupportedArchive is returned for unknown archive extensions
	ErrUnsupportedArchive = errors.New("unsupported archive format")
)

// FileEntry describes one listed entry
type FileEntry struct {
	Name string    `json:"name"`
	Size int64     `json:"size"`
	Time time.Time `json:"time"`
	Type int       `json:"type"`
	Mode uint32    `json:"mode"`
	Mime string    `json:"mime,omitempty"`
}

// Overview is one page of a directory listing
type Overview struct {
	Items        []FileEntry `json:"items"`
	Page         int         `json:"page"`
	PageSize     int         `json:"pageSize"`
	Total        int         `json:"total"`
	AbsolutePath string      `json:"absolutePath"`
}

// Options configures a session
type Options struct {
	// DefaultPageSize applies when List is called with pageSize <= 0
	DefaultPageSize int
	// MaxEditSize bounds files returned by Edit in read mode
	MaxEditSize int64
	// DefaultCode is the entry name encoding used when none is given
	DefaultCode string
}

// DefaultOptions returns the standard session options
func DefaultOptions() Options {
	return Options{
		DefaultPageSize: 40,
		MaxEditSize:     4 << 20,
		DefaultCode:     "utf-8",
	}
}
