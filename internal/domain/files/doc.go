// Package files implements the file-domain events of the daemon.
//
// Every event under the "file/" namespace first passes ValidateInstance,
// which rejects references to unknown instances before any handler or
// session is touched. Handlers then open a Session for the instance and
// translate the payload into session calls:
//
//   - file/list      Cd(target) then List(page, pageSize, pattern)
//   - file/status    in-flight archive task counters
//   - file/tasks     running background tasks of the instance
//   - file/mkdir     Mkdir(target)
//   - file/copy      Copy for each pair, in order, stopping at the first error
//   - file/move      Move for each pair, in order, stopping at the first error
//   - file/delete    Delete for each target in the background; responds at once
//   - file/edit      Edit(target, text); read mode when text is absent
//   - file/compress  admission gate, then Zip or Unzip in the background
//
// Batches are not atomic: pairs applied before a failure stay applied.
// Background failures are logged and counted but never reach the caller.
package files
