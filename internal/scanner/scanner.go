// Package scanner walks the local sync root into the flat file listing the
// reconciler compares against the remote listing.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sourcegraph/conc/iter"

	"github.com/brandstaetter/brandybox/internal/hasher"
	"github.com/brandstaetter/brandybox/internal/pathutil"
)

// LocalFile is one regular file found under the sync root.
type LocalFile struct {
	Path    string // normalized, relative to root
	ModTime time.Time
	Size    int64
}

// ScanDir walks root and returns every regular file not matched by
// pathutil.IsIgnored, with paths relative to root in canonical form.
func ScanDir(root string) ([]LocalFile, error) {
	var files []LocalFile

	// A walk error on any entry (permission-denied directory, a file that
	// vanished mid-walk, ...) drops just that entry, never the whole scan:
	// spec.md §4.B requires unreadable entries to be silently skipped, and
	// original_source/sync.rs's list_local does the same by filtering out
	// failed entries (filter_map(|e| e.ok())) rather than aborting the walk.
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = pathutil.Normalize(rel)
		if pathutil.IsIgnored(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !info.Mode().IsRegular() {
			// A symbolic link counts when it resolves to a regular file;
			// broken links and other special files are skipped.
			info, err = os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				return nil
			}
		}
		files = append(files, LocalFile{
			Path:    rel,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	return files, nil
}

// HashAll computes the content hash of each file in paths (relative to
// root), using a bounded worker pool since hashing a large tree
// sequentially would dominate cycle time. A file that fails to hash (e.g.
// permission denied) is simply omitted from the result map; callers treat
// a missing hash as "unknown", never as "equal".
func HashAll(root string, paths []string) map[string]string {
	type pair struct {
		path string
		hash string
		ok   bool
	}

	results := iter.Map(paths, func(p *string) pair {
		full, err := pathutil.ValidateRelative(root, *p)
		if err != nil {
			return pair{path: *p}
		}
		h, err := hasher.File(full)
		if err != nil {
			return pair{path: *p}
		}
		return pair{path: *p, hash: h, ok: true}
	})

	out := make(map[string]string, len(results))
	for _, r := range results {
		if r.ok {
			out[r.path] = r.hash
		}
	}
	return out
}
