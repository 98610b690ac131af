package engine

import (
	"context"
	"fmt"

	"github.com/brandstaetter/brandybox/internal/executor"
	"github.com/brandstaetter/brandybox/internal/reconciler"
	"github.com/brandstaetter/brandybox/internal/remote"
	"github.com/brandstaetter/brandybox/internal/reporter"
	"github.com/brandstaetter/brandybox/internal/scanner"
	"github.com/brandstaetter/brandybox/internal/state"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

// Engine owns one sync root's state store and runs cycles against a
// remote client, reporting progress/status through a Reporter.
type Engine struct {
	Root     string
	Client   remote.Client
	Store    *state.Store
	Reporter *reporter.Reporter
}

// New returns an Engine for root. rep may be nil to run without progress
// reporting (e.g. in tests that only care about the resulting state).
func New(root string, client remote.Client, store *state.Store, rep *reporter.Reporter) *Engine {
	return &Engine{Root: root, Client: client, Store: store, Reporter: rep}
}

// CycleResult is what the driver surfaces to the UI as a sync-completed
// event.
type CycleResult struct {
	BytesDownloaded int64
	BytesUploaded   int64
	Warning         string // empty unless the cycle ended in warning
}

// RunCycle performs one full list -> plan -> execute -> commit pass. A
// non-nil error means the cycle aborted fatally: no state was committed,
// and status was already set to error(msg) before returning.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	e.setStatus(reporter.StatusSyncing, "")
	e.setProgress(reporter.PhaseListing, 0, 0)

	local, err := scanner.ScanDir(e.Root)
	if err != nil {
		return e.fail(fmt.Errorf("scan local directory: %w", err))
	}

	remoteList, err := e.Client.ListFiles(ctx)
	if err != nil {
		return e.fail(fmt.Errorf("list remote files: %w", err))
	}

	doc := e.Store.Load()

	plan := reconciler.Build(reconciler.Input{
		Root:       e.Root,
		Local:      local,
		Remote:     remoteList,
		LastSynced: doc.Paths,
	})
	if plan.GuardrailTripped {
		logging.Logger().Warn("remote-delete guardrail tripped, discarding remote deletions this cycle",
			logging.Path(e.Root))
	}

	remoteHashes := make(map[string]string, len(remoteList))
	for _, f := range remoteList {
		if f.Hash != "" {
			remoteHashes[f.Path] = f.Hash
		}
	}

	exec := executor.New(e.Root, e.Client, e.Reporter)
	result, err := exec.Run(ctx, plan, doc.DownloadedPaths, doc.FileHashes, remoteHashes)
	if err != nil {
		return e.fail(err)
	}

	newDoc := state.Document{
		Paths:           newSyncedPaths(local, remoteList, plan, result),
		DownloadedPaths: nil,
		FileHashes:      result.FileHashes,
	}
	if err := e.Store.Save(newDoc); err != nil {
		logging.Logger().Warn("failed to persist sync state, next cycle will re-derive", logging.Err(err))
	}

	cr := CycleResult{
		BytesDownloaded: result.BytesDownloaded,
		BytesUploaded:   result.BytesUploaded,
	}

	if len(result.SkippedDownloads) > 0 || len(result.SkippedUploads) > 0 {
		cr.Warning = fmt.Sprintf("%d download(s) and %d upload(s) skipped", len(result.SkippedDownloads), len(result.SkippedUploads))
		e.setStatus(reporter.StatusWarning, cr.Warning)
		return cr, nil
	}

	e.setStatus(reporter.StatusSynced, "")
	return cr, nil
}

func (e *Engine) fail(err error) (CycleResult, error) {
	e.setStatus(reporter.StatusError, err.Error())
	return CycleResult{}, err
}

func (e *Engine) setStatus(kind reporter.StatusKind, msg string) {
	if e.Reporter == nil {
		return
	}
	e.Reporter.SetStatus(reporter.Status{Kind: kind, Message: msg})
}

func (e *Engine) setProgress(phase reporter.Phase, current, total uint64) {
	if e.Reporter == nil {
		return
	}
	e.Reporter.SetProgress(reporter.Progress{Phase: phase, Current: current, Total: total})
}
