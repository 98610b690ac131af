// Package driver is the outermost orchestration layer: it turns a
// UI-initiated trigger or a timer tick into an engine.RunCycle call,
// enforcing the guardrails that keep a scheduled sync from ever running
// concurrently with another, or running at all before the sync folder
// exists.
package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/brandstaetter/brandybox/internal/config"
	"github.com/brandstaetter/brandybox/internal/engine"
	"github.com/brandstaetter/brandybox/internal/reporter"
	"github.com/brandstaetter/brandybox/pkg/logging"
)

const (
	initialDelay = 15 * time.Second
	loopInterval = 60 * time.Second
)

// ErrNoSyncFolder is returned by Trigger when no sync folder is
// configured; the driver refuses to run rather than guessing one.
var ErrNoSyncFolder = errors.New("no sync folder configured")

// ErrAlreadySyncing is returned by Trigger when a cycle is already
// running.
var ErrAlreadySyncing = errors.New("a sync cycle is already running")

// TokenSource supplies a valid access token before a scheduled cycle
// runs. The background loop skips a tick rather than starting a cycle
// doomed to fail at the first authenticated request.
type TokenSource interface {
	ValidAccessToken(ctx context.Context) (string, error)
}

// CompletionSink receives the sync-completed event a cycle produces.
type CompletionSink interface {
	SyncCompleted(bytesDownloaded, bytesUploaded int64)
}

// Driver triggers sync cycles on demand and on a background schedule. It
// guarantees at most one cycle runs at a time.
type Driver struct {
	Engine   *engine.Engine
	Reporter *reporter.Reporter
	Tokens   TokenSource
	Sink     CompletionSink

	running atomic.Bool
}

// New returns a Driver wired to e. tokens and sink may be nil: a nil
// TokenSource skips the token guardrail (useful when auth is handled
// upstream), a nil CompletionSink simply drops the completion event.
func New(e *engine.Engine, rep *reporter.Reporter, tokens TokenSource, sink CompletionSink) *Driver {
	return &Driver{Engine: e, Reporter: rep, Tokens: tokens, Sink: sink}
}

// Trigger starts one cycle in the background and returns immediately.
// It returns an error without starting anything if the sync folder isn't
// configured or a cycle is already in flight.
func (d *Driver) Trigger(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrAlreadySyncing
	}
	if err := d.guardrails(); err != nil {
		d.running.Store(false)
		return err
	}

	go func() {
		defer d.running.Store(false)
		result, err := d.Engine.RunCycle(ctx)
		if err != nil {
			logging.Logger().Error("sync cycle failed", logging.Err(err))
			return
		}
		if d.Sink != nil {
			d.Sink.SyncCompleted(result.BytesDownloaded, result.BytesUploaded)
		}
	}()
	return nil
}

// RunOnce runs a single cycle synchronously, applying the same
// guardrails as Trigger, and returns the engine's result directly. It is
// meant for callers that want to block for completion (the `sync` CLI
// command) rather than fire-and-forget (the local API, the background
// loop).
func (d *Driver) RunOnce(ctx context.Context) (engine.CycleResult, error) {
	if !d.running.CompareAndSwap(false, true) {
		return engine.CycleResult{}, ErrAlreadySyncing
	}
	defer d.running.Store(false)

	if err := d.guardrails(); err != nil {
		return engine.CycleResult{}, err
	}

	result, err := d.Engine.RunCycle(ctx)
	if err != nil {
		return engine.CycleResult{}, err
	}
	if d.Sink != nil {
		d.Sink.SyncCompleted(result.BytesDownloaded, result.BytesUploaded)
	}
	return result, nil
}

func (d *Driver) guardrails() error {
	if !config.IsConfigured() {
		return ErrNoSyncFolder
	}
	if err := d.ensureFolder(); err != nil {
		return fmt.Errorf("ensure sync folder: %w", err)
	}
	return nil
}

func (d *Driver) ensureFolder() error {
	folder := config.Get().SyncFolder
	info, err := os.Stat(folder)
	if os.IsNotExist(err) {
		return os.MkdirAll(folder, 0o755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("sync folder %q is not a directory", folder)
	}
	return nil
}

// RunLoop runs the background schedule until ctx is cancelled: an
// initial 15s delay, then a tick every 60s. Each tick runs a cycle only
// if none is already running, a sync folder is configured, and (when a
// TokenSource is set) a valid access token is obtainable.
func (d *Driver) RunLoop(ctx context.Context) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			d.tick(ctx)
			timer.Reset(loopInterval)
		}
	}
}

func (d *Driver) tick(ctx context.Context) {
	if d.running.Load() {
		return
	}
	if !config.IsConfigured() {
		return
	}
	if d.Tokens != nil {
		if _, err := d.Tokens.ValidAccessToken(ctx); err != nil {
			logging.Logger().Warn("skipping scheduled sync: no valid access token", logging.Err(err))
			return
		}
	}
	if err := d.Trigger(ctx); err != nil && !errors.Is(err, ErrAlreadySyncing) {
		logging.Logger().Warn("skipping scheduled sync", logging.Err(err))
	}
}
