// Package remote is the external transport collaborator: everything the
// sync engine needs from the Brandy Box backend, behind an interface so the
// reconciler and executor never depend on HTTP directly.
package remote

import (
	"context"
	"io"
	"time"
)

// File is one entry from the server's file listing.
type File struct {
	Path    string
	ModTime time.Time
	// Hash is the server-computed content hash, when the server provides
	// one. Empty means unknown, never "equal to anything".
	Hash string
}

// Tokens is the access/refresh token pair returned by login and refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Client is the remote collaborator contract: auth, listing, and
// per-file transfer/delete against the backend.
type Client interface {
	Login(ctx context.Context, email, password string) (Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (Tokens, error)

	ListFiles(ctx context.Context) ([]File, error)
	Download(ctx context.Context, path string, w io.Writer, progress func(n int64)) error
	UploadFromPath(ctx context.Context, path, localPath string, progress func(n int64)) error
	// Delete removes path. A 404 response counts as success: the file is
	// already gone, which is exactly what the caller wanted.
	Delete(ctx context.Context, path string) error
}
