package filesystem

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/text/encoding"
)

// ArchiveFormat identifies a supported archive container
type ArchiveFormat string

const (
	FormatZip    ArchiveFormat = "zip"
	FormatTar    ArchiveFormat = "tar"
	FormatTarGz  ArchiveFormat = "tar.gz"
	FormatTarZst ArchiveFormat = "tar.zst"
)

// DetectFormat picks the archive format from a file name
func DetectFormat(name string) (ArchiveFormat, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedArchive, filepath.Base(name))
}

// archiveItem is one file or directory queued for compression
type archiveItem struct {
	path string
	name string
	info os.FileInfo
}

// Zip writes the targets into the archive at source. Directories are added
// recursively under their base name. code selects the entry name encoding
// for zip archives.
func (s *Session) Zip(ctx context.Context, source string, targets []string, code string) error {
	if len(targets) == 0 {
		return fmt.Errorf("zip %s: no files to compress", source)
	}
	output, err := s.resolve(source)
	if err != nil {
		return err
	}
	format, err := DetectFormat(output)
	if err != nil {
		return err
	}
	if code == "" || code == CodeAuto {
		code = s.opts.DefaultCode
	}
	enc, err := lookupEncoding(code)
	if err != nil {
		return err
	}

	var items []archiveItem
	for _, t := range targets {
		full, err := s.resolve(t)
		if err != nil {
			return err
		}
		if full == output {
			return fmt.Errorf("zip %s: archive cannot contain itself", source)
		}
		collected, err := collect(ctx, full, output)
		if err != nil {
			return fmt.Errorf("zip %s: %w", t, err)
		}
		items = append(items, collected...)
	}

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("zip %s: %w", source, err)
	}

	if format == FormatZip {
		err = writeZip(ctx, out, items, enc)
	} else {
		err = writeTar(ctx, out, items, format)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		return fmt.Errorf("zip %s: %w", source, err)
	}
	return nil
}

// collect gathers full and everything below it, sorted by entry name.
// The archive being written is skipped.
func collect(ctx context.Context, full, output string) ([]archiveItem, error) {
	info, err := os.Lstat(full)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(full)
	items := []archiveItem{{path: full, name: base, info: info}}
	if !info.IsDir() {
		return items, nil
	}

	var mu sync.Mutex
	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, full, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return err
		}
		if path == full || path == output {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(full, path)
		if err != nil {
			return err
		}
		mu.Lock()
		items = append(items, archiveItem{
			path: path,
			name: filepath.ToSlash(filepath.Join(base, rel)),
			info: fi,
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })
	return items, nil
}

func writeZip(ctx context.Context, out io.Writer, items []archiveItem, enc encoding.Encoding) error {
	zw := zip.NewWriter(out)

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			zw.Close()
			return err
		}
		if !item.info.IsDir() && !item.info.Mode().IsRegular() {
			continue
		}

		header, err := zip.FileInfoHeader(item.info)
		if err != nil {
			zw.Close()
			return err
		}
		name, err := encodeName(item.name, enc)
		if err != nil {
			zw.Close()
			return err
		}
		header.Name = name
		header.NonUTF8 = enc != nil
		if item.info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
		} else {
			header.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(header)
		if err != nil {
			zw.Close()
			return err
		}
		if item.info.IsDir() {
			continue
		}
		if err := copyFileTo(w, item.path); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func writeTar(ctx context.Context, out io.Writer, items []archiveItem, format ArchiveFormat) error {
	var (
		sink   io.Writer = out
		closer io.Closer
	)
	switch format {
	case FormatTarGz:
		gz := gzip.NewWriter(out)
		sink, closer = gz, gz
	case FormatTarZst:
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		sink, closer = zw, zw
	}

	tw := tar.NewWriter(sink)
	err := func() error {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return err
			}
			link := ""
			if item.info.Mode()&os.ModeSymlink != 0 {
				target, err := os.Readlink(item.path)
				if err != nil {
					return err
				}
				link = target
			}
			header, err := tar.FileInfoHeader(item.info, link)
			if err != nil {
				return err
			}
			header.Name = item.name
			if item.info.IsDir() {
				header.Name += "/"
			}
			if err := tw.WriteHeader(header); err != nil {
				return err
			}
			if item.info.Mode().IsRegular() {
				if err := copyFileTo(tw, item.path); err != nil {
					return err
				}
			}
		}
		return nil
	}()

	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if closer != nil {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func copyFileTo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}

// Unzip extracts the archive at source into the directory target, creating
// it when missing. Entries escaping target are skipped. code selects how
// non UTF-8 zip entry names are decoded; "auto" detects the charset.
func (s *Session) Unzip(ctx context.Context, source, target, code string) error {
	archive, err := s.resolve(source)
	if err != nil {
		return err
	}
	dest, err := s.resolve(target)
	if err != nil {
		return err
	}
	format, err := DetectFormat(archive)
	if err != nil {
		return err
	}
	if code == "" {
		code = s.opts.DefaultCode
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("unzip %s: %w", source, err)
	}

	if format == FormatZip {
		err = extractZip(ctx, archive, dest, code)
	} else {
		err = extractTar(ctx, archive, dest, format)
	}
	if err != nil {
		return fmt.Errorf("unzip %s: %w", source, err)
	}
	return nil
}

func extractZip(ctx context.Context, archive, dest, code string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer reader.Close()

	var enc encoding.Encoding
	if code == CodeAuto {
		names := make([]string, 0, len(reader.File))
		for _, f := range reader.File {
			names = append(names, f.Name)
		}
		enc = detectEncoding(names)
	} else if enc, err = lookupEncoding(code); err != nil {
		return err
	}

	for _, f := range reader.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := f.Name
		if f.NonUTF8 || !utf8.ValidString(name) {
			name = decodeName(name, enc)
		}
		destPath, ok := entryPath(dest, name)
		if !ok {
			continue
		}

		mode := f.Mode()
		if mode.IsDir() {
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return err
			}
			continue
		}
		if !mode.IsRegular() {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		err = writeFile(destPath, rc, mode.Perm())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTar(ctx context.Context, archive, dest string, format ArchiveFormat) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	var src io.Reader = file
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return err
		}
		defer gz.Close()
		src = gz
	case FormatTarZst:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return err
		}
		defer zr.Close()
		src = zr
	}

	tr := tar.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		destPath, ok := entryPath(dest, header.Name)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(destPath, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
				return err
			}
			if err := writeFile(destPath, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		}
		// Links and special files are not extracted
	}
}

// entryPath joins an archive entry name under dest, rejecting names that
// would land outside it, directly or through a symlink already in dest
func entryPath(dest, name string) (string, bool) {
	name = strings.TrimLeft(filepath.FromSlash(name), string(filepath.Separator))
	if name == "" {
		return "", false
	}
	full := filepath.Join(dest, name)
	if full == dest || !within(dest, full) || !confined(dest, full) {
		return "", false
	}
	return full, true
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
