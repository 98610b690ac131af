package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/imroc/req/v3"

	apperrors "github.com/brandstaetter/brandybox/pkg/errors"
	"github.com/brandstaetter/brandybox/pkg/logging"
	"github.com/brandstaetter/brandybox/pkg/progress"
	"github.com/brandstaetter/brandybox/pkg/retry"
)

const (
	maxAttempts     = 3
	backoffUnit     = 2 * time.Second
	baseTimeout     = 10 * time.Second
	perMegabyteWait = 2 * time.Second
)

// apiError is the error body the backend sends on non-2xx responses.
type apiError struct {
	Error string `json:"error"`
}

type fileListResponse struct {
	Files []fileEntry `json:"files"`
}

type fileEntry struct {
	Path  string `json:"path"`
	Mtime float64 `json:"mtime"`
	Hash  string  `json:"hash,omitempty"`
}

type authResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// HTTPClient is the concrete remote.Client implementation, built on
// req/v3 the way OpenMined-syftbox's SyftSDK wraps the same library.
type HTTPClient struct {
	c           *req.Client
	accessToken string
}

// NewHTTPClient builds a client bound to baseURL. Bearer auth is applied
// per-request via SetAccessToken, since the token rotates as the engine
// refreshes it mid-session.
func NewHTTPClient(baseURL string) *HTTPClient {
	c := req.C().
		SetBaseURL(baseURL).
		SetTimeout(baseTimeout).
		SetUserAgent("brandybox-sync/1.0").
		SetCommonErrorResult(&apiError{})
	return &HTTPClient{c: c}
}

// SetAccessToken updates the bearer token used for subsequent requests.
func (h *HTTPClient) SetAccessToken(token string) {
	h.accessToken = token
}

func (h *HTTPClient) authedRequest(ctx context.Context) *req.Request {
	r := h.c.R().SetContext(ctx)
	if h.accessToken != "" {
		r = r.SetBearerAuthToken(h.accessToken)
	}
	return r
}

func (h *HTTPClient) Login(ctx context.Context, email, password string) (Tokens, error) {
	var resp authResponse
	res, err := h.c.R().SetContext(ctx).
		SetBodyJsonMarshal(map[string]string{"email": email, "password": password}).
		SetSuccessResult(&resp).
		Post("/api/auth/login")
	if err := handleError(res, err, "login"); err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func (h *HTTPClient) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	var resp authResponse
	res, err := h.c.R().SetContext(ctx).
		SetBodyJsonMarshal(map[string]string{"refresh_token": refreshToken}).
		SetSuccessResult(&resp).
		Post("/api/auth/refresh")
	if err := handleError(res, err, "refresh"); err != nil {
		return Tokens{}, err
	}
	return Tokens{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}, nil
}

func (h *HTTPClient) ListFiles(ctx context.Context) ([]File, error) {
	var resp fileListResponse
	res, err := h.authedRequest(ctx).SetSuccessResult(&resp).Get("/api/files/list")
	if err := handleError(res, err, "list files"); err != nil {
		return nil, err
	}
	files := make([]File, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, File{
			Path:    f.Path,
			ModTime: time.Unix(int64(f.Mtime), 0),
			Hash:    f.Hash,
		})
	}
	return files, nil
}

func (h *HTTPClient) Download(ctx context.Context, path string, w io.Writer, onProgress func(n int64)) error {
	var dst io.Writer = w
	if onProgress != nil {
		dst = &countingWriter{w: w, onProgress: onProgress}
	}

	return withRetry(ctx, "download "+path, func(attempt int) error {
		res, err := h.authedRequest(ctx).
			SetOutput(dst).
			Get("/api/files/download?path=" + req.QueryParamEncode(path))
		if res != nil && res.StatusCode == http.StatusNotFound {
			return apperrors.ErrRemoteGone
		}
		return handleError(res, err, "download "+path)
	})
}

func (h *HTTPClient) UploadFromPath(ctx context.Context, path, localPath string, onProgress func(n int64)) error {
	info, err := os.Stat(localPath)
	if os.IsNotExist(err) {
		return apperrors.ErrFileVanished
	}
	if err != nil {
		return err
	}
	timeout := baseTimeout + time.Duration(info.Size()/1_000_000)*perMegabyteWait

	return withRetry(ctx, "upload "+path, func(attempt int) error {
		f, err := os.Open(localPath)
		if os.IsNotExist(err) {
			return apperrors.ErrFileVanished
		}
		if err != nil {
			return err
		}
		defer f.Close()

		var body io.Reader = f
		if onProgress != nil {
			body = progress.NewReader(f, info.Size(), func(transferred, _ int64) {
				onProgress(transferred)
			})
		}

		res, err := h.authedRequest(ctx).
			SetTimeout(timeout).
			SetFormDataFromValues(map[string][]string{"path": {path}}).
			SetFileReader("file", path, body).
			Post("/api/files/upload")
		return handleError(res, err, "upload "+path)
	})
}

func (h *HTTPClient) Delete(ctx context.Context, path string) error {
	return withRetry(ctx, "delete "+path, func(attempt int) error {
		res, err := h.authedRequest(ctx).Delete("/api/files/delete?path=" + req.QueryParamEncode(path))
		if res != nil && res.StatusCode == http.StatusNotFound {
			return nil
		}
		return handleError(res, err, "delete "+path)
	})
}

// withRetry implements the transfer-retry schedule: three attempts,
// sleeping 2s then 4s between them. A skippable error (remote already
// gone, local file vanished) is returned immediately without burning
// retries on it.
func withRetry(ctx context.Context, op string, fn func(attempt int) error) error {
	cfg := &retry.Config{
		MaxAttempts: maxAttempts,
		InitialWait: backoffUnit,
		MaxWait:     time.Duration(maxAttempts) * backoffUnit,
		Multiplier:  2,
	}

	attempt := 0
	err := retry.Do(ctx, cfg, func(err error) bool {
		if apperrors.IsSkippable(err) {
			return false
		}
		logging.Logger().Warn("remote operation failed, retrying",
			logging.Operation(op), logging.Err(err), slog.Int("attempt", attempt+1))
		return true
	}, func() error {
		callErr := fn(attempt)
		attempt++
		return callErr
	})

	if err == nil || apperrors.IsSkippable(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func handleError(res *req.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.IsErrorState() {
		if apiErr, ok := res.ErrorResult().(*apiError); ok && apiErr.Error != "" {
			if res.StatusCode == http.StatusUnauthorized {
				return fmt.Errorf("%s: %w: %s", op, apperrors.ErrUnauthorized, apiErr.Error)
			}
			return fmt.Errorf("%s: %s", op, apiErr.Error)
		}
		return fmt.Errorf("%s: unexpected status %d", op, res.StatusCode)
	}
	return nil
}

// countingWriter wraps an io.Writer to report cumulative bytes written.
type countingWriter struct {
	w          io.Writer
	onProgress func(n int64)
	written    int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	if n > 0 {
		c.written += int64(n)
		if c.onProgress != nil {
			c.onProgress(c.written)
		}
	}
	return n, err
}

