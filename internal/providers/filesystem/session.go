package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/gabriel-vasile/mimetype"
)

// Session is a file manager bound to one instance root
type Session struct {
	root string
	cwd  string
	opts Options
}

// NewSession creates a session rooted at root with the cursor at "/"
func NewSession(root string, opts Options) (*Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("instance root unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("instance root %s: %w", abs, ErrNotDirectory)
	}

	defaults := DefaultOptions()
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaults.DefaultPageSize
	}
	if opts.MaxEditSize <= 0 {
		opts.MaxEditSize = defaults.MaxEditSize
	}
	if opts.DefaultCode == "" {
		opts.DefaultCode = defaults.DefaultCode
	}

	return &Session{root: abs, cwd: "/", opts: opts}, nil
}

// Root returns the host path of the instance root
func (s *Session) Root() string {
	return s.root
}

// Cwd returns the virtual current directory
func (s *Session) Cwd() string {
	return s.cwd
}

// Cd moves the cursor. An empty target leaves it unchanged.
func (s *Session) Cd(target string) error {
	if target == "" {
		return nil
	}
	full, err := s.resolve(target)
	if err != nil {
		return err
	}
	info, err := os.Stat(full)
	if err != nil {
		return fmt.Errorf("cd %s: %w", target, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cd %s: %w", target, ErrNotDirectory)
	}
	s.cwd = s.virtual(full)
	return nil
}

// List returns one page of the current directory. Pages start at 1; a
// page below 1 is treated as the first page. A non-empty pattern keeps
// only names matching the doublestar glob.
func (s *Session) List(page, pageSize int, pattern string) (*Overview, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.opts.DefaultPageSize
	}
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	dir, err := s.resolve(s.cwd)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.cwd, err)
	}

	if pattern != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if ok, _ := doublestar.Match(pattern, e.Name()); ok {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	// Bounds are computed without multiplying past total, so huge page
	// numbers and sizes cannot overflow
	total := len(entries)
	start := total
	if page-1 <= total/pageSize {
		start = min((page-1)*pageSize, total)
	}
	end := start + min(pageSize, total-start)

	items := make([]FileEntry, 0, end-start)
	for _, e := range entries[start:end] {
		info, err := e.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info
			continue
		}
		item := FileEntry{
			Name: e.Name(),
			Size: info.Size(),
			Time: info.ModTime(),
			Type: TypeFile,
			Mode: uint32(info.Mode().Perm()),
		}
		if e.IsDir() {
			item.Type = TypeDirectory
		} else if info.Mode().IsRegular() {
			if mt, err := mimetype.DetectFile(filepath.Join(dir, e.Name())); err == nil {
				item.Mime = mt.String()
			}
		}
		items = append(items, item)
	}

	return &Overview{
		Items:        items,
		Page:         page,
		PageSize:     pageSize,
		Total:        total,
		AbsolutePath: s.cwd,
	}, nil
}

// Mkdir creates a single directory
func (s *Session) Mkdir(target string) error {
	full, err := s.resolve(target)
	if err != nil {
		return err
	}
	if err := os.Mkdir(full, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", target, err)
	}
	return nil
}

// Copy copies a file or a directory tree, overwriting existing files
func (s *Session) Copy(ctx context.Context, src, dst string) error {
	from, err := s.resolve(src)
	if err != nil {
		return err
	}
	to, err := s.resolve(dst)
	if err != nil {
		return err
	}

	info, err := os.Lstat(from)
	if err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if sameFile(from, to) {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, ErrSameFile)
	}
	if info.IsDir() {
		if within(from, to) {
			return fmt.Errorf("copy %s: destination %s is inside the source", src, dst)
		}
		if err := copyTree(ctx, from, to); err != nil {
			return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
		}
		return nil
	}
	if err := copyEntry(from, to, info); err != nil {
		return fmt.Errorf("copy %s -> %s: %w", src, dst, err)
	}
	return nil
}

// Move renames src to dst, falling back to copy and remove across devices
func (s *Session) Move(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := s.resolve(src)
	if err != nil {
		return err
	}
	to, err := s.resolve(dst)
	if err != nil {
		return err
	}
	if from == s.root {
		return ErrRootProtected
	}

	err = os.Rename(from, to)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return fmt.Errorf("move %s -> %s: %w", src, dst, err)
	}

	if err := s.Copy(ctx, src, dst); err != nil {
		return err
	}
	if err := os.RemoveAll(from); err != nil {
		return fmt.Errorf("move %s: remove source: %w", src, err)
	}
	return nil
}

// Delete removes a file or a directory tree
func (s *Session) Delete(target string) error {
	full, err := s.resolve(target)
	if err != nil {
		return err
	}
	if full == s.root {
		return ErrRootProtected
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("delete %s: %w", target, err)
	}
	return nil
}

// Edit writes text to target when text is non-nil and returns "". With a
// nil text it returns the current content of a text file.
func (s *Session) Edit(target string, text *string) (string, error) {
	full, err := s.resolve(target)
	if err != nil {
		return "", err
	}

	if text != nil {
		perm := os.FileMode(0644)
		if info, err := os.Stat(full); err == nil {
			perm = info.Mode().Perm()
		}
		if err := os.WriteFile(full, []byte(*text), perm); err != nil {
			return "", fmt.Errorf("edit %s: %w", target, err)
		}
		return "", nil
	}

	info, err := os.Stat(full)
	if err != nil {
		return "", fmt.Errorf("edit %s: %w", target, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("edit %s: is a directory", target)
	}
	if info.Size() > s.opts.MaxEditSize {
		return "", fmt.Errorf("edit %s: %w (%d > %d bytes)", target, ErrTooLarge, info.Size(), s.opts.MaxEditSize)
	}
	if info.Size() > 0 {
		mt, err := mimetype.DetectFile(full)
		if err != nil {
			return "", fmt.Errorf("edit %s: %w", target, err)
		}
		if !isText(mt) {
			return "", fmt.Errorf("edit %s: %w (%s)", target, ErrNotText, mt.String())
		}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("edit %s: %w", target, err)
	}
	return string(data), nil
}

func isText(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

// sameFile reports whether two host paths name the same file once links
// are followed
func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// copyTree copies a directory tree. fastwalk visits entries concurrently,
// so every file ensures its own parent exists.
func copyTree(ctx context.Context, from, to string) error {
	rootInfo, err := os.Stat(from)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(to, rootInfo.Mode().Perm()); err != nil {
		return err
	}

	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, from, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}
		if path == from {
			return nil
		}

		rel, err := filepath.Rel(from, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(to, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			mu.Lock()
			defer mu.Unlock()
			return os.MkdirAll(dest, info.Mode().Perm())
		}

		mu.Lock()
		err = os.MkdirAll(filepath.Dir(dest), 0755)
		mu.Unlock()
		if err != nil {
			return err
		}
		return copyEntry(path, dest, info)
	})
}

// copyEntry copies a regular file or recreates a symlink
func copyEntry(from, to string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		link, err := os.Readlink(from)
		if err != nil {
			return err
		}
		os.Remove(to)
		return os.Symlink(link, to)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: unsupported file type %s", from, info.Mode().Type())
	}

	in, err := os.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(to, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
