// Package engine drives one full sync cycle: list, plan
// (internal/reconciler), execute (internal/executor), and commit the new
// last-synced state (internal/state). The state document is only written
// once, at the very end of a successful cycle, never incrementally as
// downloads land: a cycle interrupted partway through must not leave
// behind a state file that claims more progress than was durably made.
package engine

import (
	"sort"

	"github.com/brandstaetter/brandybox/internal/executor"
	"github.com/brandstaetter/brandybox/internal/pathutil"
	"github.com/brandstaetter/brandybox/internal/reconciler"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/internal/scanner"
)

// newSyncedPaths computes the paths.md §4.I formula:
//
//	base_synced = (current_local − to_delete_local) ∩ (current_remote − to_delete_remote)
//	new_synced  = base_synced ∪ completed_downloads ∪ completed_uploads
//
// with ignored names excluded throughout.
func newSyncedPaths(local []scanner.LocalFile, remoteList []remote.File, plan reconciler.Plan, result executor.Result) []string {
	currentLocal := map[string]bool{}
	for _, f := range local {
		if !pathutil.IsIgnored(f.Path) {
			currentLocal[f.Path] = true
		}
	}
	currentRemote := map[string]bool{}
	for _, f := range remoteList {
		if !pathutil.IsIgnored(f.Path) {
			currentRemote[f.Path] = true
		}
	}

	toDeleteLocal := toSet(plan.DeleteLocal)
	toDeleteRemote := toSet(plan.DeleteRemote)

	merged := map[string]bool{}
	for p := range currentLocal {
		if toDeleteLocal[p] {
			continue
		}
		if !currentRemote[p] || toDeleteRemote[p] {
			continue
		}
		merged[p] = true
	}
	for _, p := range result.CompletedDownloads {
		if !pathutil.IsIgnored(p) {
			merged[p] = true
		}
	}
	for _, p := range result.CompletedUploads {
		if !pathutil.IsIgnored(p) {
			merged[p] = true
		}
	}

	out := make([]string, 0, len(merged))
	for p := range merged {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func toSet(paths []string) map[string]bool {
	out := make(map[string]bool, len(paths))
	for _, p := range paths {
		out[p] = true
	}
	return out
}
