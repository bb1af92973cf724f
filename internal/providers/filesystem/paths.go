package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"
)

// resolve maps a virtual path to an absolute host path inside the root.
// Absolute virtual paths start at the root, relative ones at the cursor.
func (s *Session) resolve(p string) (string, error) {
	p = filepath.ToSlash(p)

	var joined string
	if strings.HasPrefix(p, "/") {
		joined = filepath.Join(s.root, filepath.FromSlash(p))
	} else {
		joined = filepath.Join(s.root, filepath.FromSlash(s.cwd), filepath.FromSlash(p))
	}

	rel, err := filepath.Rel(s.root, joined)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	if !confined(s.root, joined) {
		return "", fmt.Errorf("%w: %s (symlink)", ErrOutsideRoot, p)
	}
	return joined, nil
}

// maxLinkHops bounds how many dangling links confined follows
const maxLinkHops = 40

// confined reports whether full stays inside base after following the
// symlinks of its existing part. Missing trailing components are taken
// as they are; a dangling link is judged by where it points.
func confined(base, full string) bool {
	realBase, err := filepath.EvalSymlinks(base)
	if err != nil {
		return false
	}

	existing, rest := full, ""
	for hops := 0; hops < maxLinkHops; {
		resolved, err := filepath.EvalSymlinks(existing)
		if err == nil {
			return within(realBase, filepath.Join(resolved, rest))
		}
		if !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR) {
			return false
		}

		if info, lerr := os.Lstat(existing); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			target, err := os.Readlink(existing)
			if err != nil {
				return false
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(existing), target)
			}
			existing = filepath.Clean(target)
			hops++
			continue
		}

		parent := filepath.Dir(existing)
		if parent == existing {
			return false
		}
		rest = filepath.Join(filepath.Base(existing), rest)
		existing = parent
	}
	return false
}

// virtual converts a host path inside the root back to its virtual form
func (s *Session) virtual(full string) string {
	rel, err := filepath.Rel(s.root, full)
	if err != nil || rel == "." {
		return "/"
	}
	return path.Clean("/" + filepath.ToSlash(rel))
}

// within reports whether child is parent or nested below it
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
