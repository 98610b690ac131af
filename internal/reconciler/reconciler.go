// Package reconciler builds a sync plan: the four work lists (delete on
// the server, delete locally, download, upload) produced by comparing a
// local file listing, a remote file listing, and the previous cycle's
// last-known-synced state. It never touches the filesystem or network
// itself; internal/executor does that, against the plan this package
// returns.
package reconciler

import (
	"sort"

	"github.com/brandstaetter/brandybox/internal/pathutil"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/internal/scanner"
)

// GuardrailThreshold is the mass-delete-protection cutoff: a remote-delete
// set larger than this, and larger than the current local set, is
// discarded wholesale rather than executed. Protects a freshly configured
// device (empty or near-empty local folder) from wiping the server.
const GuardrailThreshold = 50

// HashFunc computes the content hash of a local file, relative to a sync
// root. Exists as a seam so tests can substitute scanner.HashAll-style
// batch hashing or a stub without touching a real filesystem.
type HashFunc func(root string, paths []string) map[string]string

// DefaultHashFunc hashes via scanner.HashAll, the bounded-concurrency
// implementation the rest of the engine uses.
var DefaultHashFunc HashFunc = scanner.HashAll

// Input bundles everything the reconciler needs for one cycle.
//
// The previously-downloaded paths and content hashes are not
// consumed here: they only affect the executor's download short-circuit,
// never plan construction itself, so they are passed directly from
// internal/engine to internal/executor instead of threaded through the
// plan.
type Input struct {
	Root       string
	Local      []scanner.LocalFile
	Remote     []remote.File
	LastSynced []string
	Hash       HashFunc // defaults to DefaultHashFunc when nil
}

// Plan is the four work lists for one sync cycle, plus whether the
// guardrail fired. DeleteRemote and DeleteLocal are ordered by descending
// path depth so nested files are removed before their parent directories
// become candidates for cleanup. Download and Upload are ordered
// alphabetically for determinism; order has no operational meaning there.
type Plan struct {
	DeleteRemote     []string
	DeleteLocal      []string
	Download         []string
	Upload           []string
	GuardrailTripped bool
}

// Total is the combined item count across all four phases, the total the
// executor's progress reporting is measured against.
func (p Plan) Total() int {
	return len(p.DeleteRemote) + len(p.DeleteLocal) + len(p.Download) + len(p.Upload)
}

// Build constructs the plan for one cycle from in.
func Build(in Input) Plan {
	hash := in.Hash
	if hash == nil {
		hash = DefaultHashFunc
	}

	localMTime := map[string]float64{}
	for _, f := range in.Local {
		if pathutil.IsIgnored(f.Path) {
			continue
		}
		localMTime[f.Path] = float64(f.ModTime.UnixNano()) / 1e9
	}
	remoteByPath := map[string]remote.File{}
	for _, f := range in.Remote {
		if pathutil.IsIgnored(f.Path) {
			continue
		}
		remoteByPath[f.Path] = f
	}
	lastSynced := filterIgnored(in.LastSynced)

	toDeleteRemote := difference(lastSynced, keysOf(localMTime))
	guardrailTripped := len(toDeleteRemote) > GuardrailThreshold && len(toDeleteRemote) > len(localMTime)
	if guardrailTripped {
		toDeleteRemote = nil
	}
	toDeleteLocal := difference(lastSynced, keysOf(remoteByPath))

	// Only paths present on both sides with a server-supplied hash are
	// worth recomputing a local digest for; everything else is decided by
	// mtime alone.
	var hashCandidates []string
	for p := range localMTime {
		if rf, ok := remoteByPath[p]; ok && rf.Hash != "" {
			hashCandidates = append(hashCandidates, p)
		}
	}
	localHashes := hash(in.Root, hashCandidates)

	download := map[string]bool{}
	for p := range remoteByPath {
		if _, ok := localMTime[p]; !ok {
			download[p] = true
		}
	}
	for p, lm := range localMTime {
		rf, ok := remoteByPath[p]
		if !ok {
			continue
		}
		if rf.Hash != "" {
			if lh, known := localHashes[p]; known && lh == rf.Hash {
				// Content matches: an mtime-only difference is clock skew,
				// not a real change. Never download.
				continue
			}
		}
		if float64(rf.ModTime.UnixNano())/1e9 > lm {
			download[p] = true
		}
	}
	for _, p := range toDeleteRemote {
		delete(download, p)
	}

	upload := map[string]bool{}
	for p, lm := range localMTime {
		rf, ok := remoteByPath[p]
		if !ok {
			upload[p] = true
			continue
		}
		contentDiffers := true
		if rf.Hash != "" {
			if lh, known := localHashes[p]; known {
				contentDiffers = lh != rf.Hash
			}
		}
		if contentDiffers && lm > float64(rf.ModTime.UnixNano())/1e9 {
			upload[p] = true
		}
	}
	for _, p := range toDeleteLocal {
		delete(upload, p)
	}

	sortByDepthDesc(toDeleteRemote)
	sortByDepthDesc(toDeleteLocal)

	return Plan{
		DeleteRemote:     toDeleteRemote,
		DeleteLocal:      toDeleteLocal,
		Download:         sortedKeys(download),
		Upload:           sortedKeys(upload),
		GuardrailTripped: guardrailTripped,
	}
}

func filterIgnored(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !pathutil.IsIgnored(p) {
			out = append(out, p)
		}
	}
	return out
}

func keysOf[V any](m map[string]V) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

// difference returns the elements of a (a slice, possibly with
// duplicates) not present in b.
func difference(a []string, b map[string]bool) []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range a {
		if b[p] || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortByDepthDesc(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		di, dj := pathutil.Depth(paths[i]), pathutil.Depth(paths[j])
		if di != dj {
			return di > dj
		}
		return paths[i] < paths[j]
	})
}
