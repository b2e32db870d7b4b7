// Package copier streams bytes from a source to a destination without transforming them.
package copier

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultBufferSize is used when the caller's hint is not positive.
const DefaultBufferSize = 32 * 1024

// ErrCopyInterrupted is returned when a copy is cancelled or either stream fails.
var ErrCopyInterrupted = errors.New("copy interrupted")

// Copy transfers all of src into dst through a buffer of bufferSize bytes and
// returns the number of bytes written. The buffer size only affects performance.
//
// Cancellation of ctx is checked between chunks. Bytes already written to dst
// are not rolled back on failure.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, bufferSize int) (int64, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	buf := make([]byte, bufferSize)

	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w after %d bytes: %w", ErrCopyInterrupted, written, err)
		}

		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			if nw < 0 || nw > nr {
				nw = 0
				if werr == nil {
					werr = errors.New("invalid write result")
				}
			}
			written += int64(nw)
			if werr != nil {
				return written, fmt.Errorf("%w: write: %w", ErrCopyInterrupted, werr)
			}
			if nw != nr {
				return written, fmt.Errorf("%w: write: %w", ErrCopyInterrupted, io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, fmt.Errorf("%w: read: %w", ErrCopyInterrupted, rerr)
		}
	}
}
