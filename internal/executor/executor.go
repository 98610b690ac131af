// Package executor runs a reconciler.Plan against the filesystem and the
// remote collaborator: deletes, then downloads, then uploads, in that
// fixed order so that partial failures never resurrect a file the other
// phase already removed. It classifies every item as completed, skipped,
// or fatal and reports progress as it goes.
package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/brandstaetter/brandybox/internal/pathutil"
	"github.com/brandstaetter/brandybox/internal/reconciler"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/internal/reporter"
	apperrors "github.com/brandstaetter/brandybox/pkg/errors"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

// Plan is the work list produced by internal/reconciler.
type Plan = reconciler.Plan

// Result is everything the commit stage (internal/engine) needs from one
// execution pass.
type Result struct {
	CompletedDownloads []string
	CompletedUploads   []string
	SkippedDownloads   []string
	SkippedUploads     []string
	BytesDownloaded    int64
	BytesUploaded      int64
	// FileHashes is the file-hash map to persist: the input map plus any
	// server hashes observed during completed downloads.
	FileHashes map[string]string
}

// Executor runs a plan against root using client, reporting progress
// through Reporter.
type Executor struct {
	Root     string
	Client   remote.Client
	Reporter *reporter.Reporter
}

// New returns an Executor for root, talking to client, reporting through
// rep. rep may be nil, in which case progress updates are simply dropped.
func New(root string, client remote.Client, rep *reporter.Reporter) *Executor {
	return &Executor{Root: root, Client: client, Reporter: rep}
}

// Run executes plan in the fixed delete-remote -> delete-local ->
// download -> upload order. remoteHashes maps path to the server's
// current hash (from the same listing the plan was built from), used by
// the download short-circuit. prevDownloaded and fileHashes come from the
// previous cycle's committed state.
//
// Run returns a non-nil error only for a fatal condition; in that case
// the caller must not commit any new state, so completed
// transfers up to the failure point remain on disk/server but are
// re-derived next cycle.
func (e *Executor) Run(ctx context.Context, plan Plan, prevDownloaded []string, fileHashes map[string]string, remoteHashes map[string]string) (Result, error) {
	prevDownloadedSet := toSet(prevDownloaded)
	hashes := make(map[string]string, len(fileHashes))
	for k, v := range fileHashes {
		hashes[k] = v
	}

	result := Result{FileHashes: hashes}
	total := uint64(len(plan.DeleteRemote) + len(plan.DeleteLocal) + len(plan.Download) + len(plan.Upload))
	var current uint64

	tick := func(phase reporter.Phase) {
		current++
		if e.Reporter != nil {
			e.Reporter.SetProgress(reporter.Progress{Phase: phase, Current: current, Total: total})
		}
	}

	for _, p := range plan.DeleteRemote {
		tick(reporter.PhaseDeleteServer)
		if err := e.Client.Delete(ctx, p); err != nil {
			return result, fatal("delete remote", p, err)
		}
	}

	for _, p := range plan.DeleteLocal {
		tick(reporter.PhaseDeleteLocal)
		e.deleteLocal(p)
	}

	for _, p := range plan.Download {
		tick(reporter.PhaseDownload)
		if err := e.download(ctx, p, prevDownloadedSet, remoteHashes, &result); err != nil {
			return result, err
		}
	}

	for _, p := range plan.Upload {
		tick(reporter.PhaseUpload)
		if err := e.upload(ctx, p, &result); err != nil {
			return result, fatal("upload", p, err)
		}
	}

	return result, nil
}

func (e *Executor) deleteLocal(p string) {
	full, err := pathutil.ValidateRelative(e.Root, p)
	if err != nil {
		logging.Logger().Warn("delete-local path rejected", logging.Path(p), logging.Err(err))
		return
	}
	info, err := os.Lstat(full)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Logger().Warn("delete-local stat failed", logging.Path(p), logging.Err(err))
		}
		return
	}
	if info.Mode().IsRegular() {
		if err := os.Remove(full); err != nil {
			logging.Logger().Warn("delete-local remove failed", logging.Path(p), logging.Err(err))
			return
		}
	}
	e.pruneEmptyAncestors(filepath.Dir(full))
}

// pruneEmptyAncestors removes dir and each empty ancestor up to (but not
// including) e.Root, stopping at the first non-empty directory.
func (e *Executor) pruneEmptyAncestors(dir string) {
	root := filepath.Clean(e.Root)
	for {
		dir = filepath.Clean(dir)
		if dir == root || dir == "." || dir == string(filepath.Separator) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// download executes one planned download. It returns a non-nil error
// only for fatal cases; permission-denied writes and 404s are recorded
// on result and return nil.
func (e *Executor) download(ctx context.Context, p string, prevDownloaded map[string]bool, remoteHashes map[string]string, result *Result) error {
	full, err := pathutil.ValidateRelative(e.Root, p)
	if err != nil {
		result.SkippedDownloads = append(result.SkippedDownloads, p)
		return nil
	}

	if prevDownloaded[p] && regularFileExists(full) {
		return nil
	}
	if sh, ok := remoteHashes[p]; ok && sh != "" && result.FileHashes[p] == sh && regularFileExists(full) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		if os.IsPermission(err) {
			result.SkippedDownloads = append(result.SkippedDownloads, p)
			return nil
		}
		return fatal("download (mkdir)", p, err)
	}

	f, err := os.OpenFile(full, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		if os.IsPermission(err) {
			result.SkippedDownloads = append(result.SkippedDownloads, p)
			return nil
		}
		return fatal("download (open)", p, err)
	}

	var written int64
	dlErr := e.Client.Download(ctx, p, f, func(n int64) { written = n })
	closeErr := f.Close()

	if dlErr != nil {
		if errors.Is(dlErr, apperrors.ErrRemoteGone) {
			_ = os.Remove(full)
			result.SkippedDownloads = append(result.SkippedDownloads, p)
			return nil
		}
		_ = os.Remove(full)
		return fatal("download", p, dlErr)
	}
	if closeErr != nil {
		if os.IsPermission(closeErr) {
			result.SkippedDownloads = append(result.SkippedDownloads, p)
			return nil
		}
		return fatal("download (close)", p, closeErr)
	}

	result.CompletedDownloads = append(result.CompletedDownloads, p)
	result.BytesDownloaded += written
	if sh := remoteHashes[p]; sh != "" {
		result.FileHashes[p] = sh
	}
	return nil
}

func (e *Executor) upload(ctx context.Context, p string, result *Result) error {
	full, err := pathutil.ValidateRelative(e.Root, p)
	if err != nil {
		result.SkippedUploads = append(result.SkippedUploads, p)
		return nil
	}
	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		result.SkippedUploads = append(result.SkippedUploads, p)
		return nil
	}
	if err != nil {
		return err
	}

	result.BytesUploaded += info.Size()
	err = e.Client.UploadFromPath(ctx, p, full, nil)
	if err != nil {
		if errors.Is(err, apperrors.ErrFileVanished) {
			result.SkippedUploads = append(result.SkippedUploads, p)
			return nil
		}
		return err
	}

	result.CompletedUploads = append(result.CompletedUploads, p)
	return nil
}

func fatal(op, path string, err error) error {
	logging.Logger().Error("sync cycle aborted", logging.Operation(op), logging.Path(path), logging.Err(err))
	return &Error{Op: op, Path: path, Err: err}
}

// Error wraps a fatal failure with the operation and path it occurred on.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}

func regularFileExists(full string) bool {
	info, err := os.Stat(full)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
