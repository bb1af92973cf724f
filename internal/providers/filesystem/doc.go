// Package filesystem provides instance-scoped file manager sessions.
//
// A Session is bound to one instance's root directory and keeps a
// navigation cursor (the current directory). It is organized into:
//   - paths: virtual path resolution confined to the instance root
//   - session: navigation, listing, mkdir, copy, move, delete, edit
//   - archives: compress and decompress (zip, tar, tar.gz, tar.zst)
//   - encoding: archive entry name encodings (utf-8, gbk, shift_jis, auto)
//
// Paths are virtual: "/" is the instance root. Absolute paths resolve from
// the root, relative paths from the cursor. A path that climbs above the
// root is rejected with ErrOutsideRoot, and so is a path that reaches
// outside through a symlink inside the root.
//
// Sessions are cheap and not safe for concurrent use; create one per
// request.
//
// Example Usage:
//
//	session, err := filesystem.NewSession(inst.Cwd, filesystem.DefaultOptions())
//	if err := session.Cd("/logs"); err != nil { ... }
//	overview, err := session.List(1, 40, "*.log")
package filesystem
