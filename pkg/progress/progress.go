// Package progress wraps an io.Reader to report cumulative bytes read as
// they flow past, the way internal/remote reports upload progress
// without threading a counter through req/v3 itself.
package progress

import (
	"io"
	"sync"
)

// Callback is a function that receives progress updates
type Callback func(bytesTransferred, totalBytes int64)

// Reader wraps an io.Reader and reports progress
type Reader struct {
	reader      io.Reader
	total       int64
	transferred int64
	callback    Callback
	mu          sync.Mutex
}

// NewReader creates a progress-tracking reader
func NewReader(r io.Reader, total int64, callback Callback) *Reader {
	return &Reader{
		reader:   r,
		total:    total,
		callback: callback,
	}
}

// Read implements io.Reader
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 {
		pr.mu.Lock()
		pr.transferred += int64(n)
		transferred := pr.transferred
		pr.mu.Unlock()

		if pr.callback != nil {
			pr.callback(transferred, pr.total)
		}
	}
	return n, err
}
