package copier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(n int) []byte {
	b := make([]byte, n)
	rand.New(rand.NewSource(int64(n))).Read(b)
	return b
}

func TestCopy_BufferSizeDoesNotChangeOutput(t *testing.T) {
	src := payload(200_003)

	for _, hint := range []int{-1, 0, 1, 7, 4096, 89120, 1 << 20} {
		var dst bytes.Buffer
		n, err := Copy(context.Background(), &dst, bytes.NewReader(src), hint)

		require.NoError(t, err, "hint %d", hint)
		assert.Equal(t, int64(len(src)), n, "hint %d", hint)
		assert.True(t, bytes.Equal(src, dst.Bytes()), "hint %d", hint)
	}
}

func TestCopy_EmptySource(t *testing.T) {
	var dst bytes.Buffer
	n, err := Copy(context.Background(), &dst, strings.NewReader(""), 16)

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, dst.Len())
}

func TestCopy_OneByteReader(t *testing.T) {
	src := payload(1000)
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, iotest.OneByteReader(bytes.NewReader(src)), 64)

	require.NoError(t, err)
	assert.Equal(t, int64(1000), n)
	assert.Equal(t, src, dst.Bytes())
}

func TestCopy_DataWithEOF(t *testing.T) {
	src := payload(300)
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, iotest.DataErrReader(bytes.NewReader(src)), 128)

	require.NoError(t, err)
	assert.Equal(t, int64(300), n)
	assert.Equal(t, src, dst.Bytes())
}

func TestCopy_ReadError(t *testing.T) {
	readErr := errors.New("connection reset")
	src := io.MultiReader(strings.NewReader("partial"), iotest.ErrReader(readErr))
	var dst bytes.Buffer

	n, err := Copy(context.Background(), &dst, src, 4)

	assert.ErrorIs(t, err, ErrCopyInterrupted)
	assert.ErrorIs(t, err, readErr)
	// Partial writes stay in the destination.
	assert.Equal(t, int64(7), n)
	assert.Equal(t, "partial", dst.String())
}

type failingWriter struct {
	after int
	n     int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.after {
		return 0, errors.New("disk full")
	}
	w.n += len(p)
	return len(p), nil
}

func TestCopy_WriteError(t *testing.T) {
	w := &failingWriter{after: 8}

	n, err := Copy(context.Background(), w, strings.NewReader("0123456789abcdef"), 4)

	assert.ErrorIs(t, err, ErrCopyInterrupted)
	assert.Equal(t, int64(8), n)
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	if len(p) > 1 {
		return len(p) - 1, nil
	}
	return len(p), nil
}

func TestCopy_ShortWrite(t *testing.T) {
	_, err := Copy(context.Background(), shortWriter{}, strings.NewReader("abcd"), 4)

	assert.ErrorIs(t, err, ErrCopyInterrupted)
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

type cancellingReader struct {
	r      io.Reader
	cancel context.CancelFunc
	reads  int
}

func (c *cancellingReader) Read(p []byte) (int, error) {
	c.reads++
	if c.reads == 2 {
		c.cancel()
	}
	return c.r.Read(p)
}

func TestCopy_CancelledMidTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancellingReader{r: bytes.NewReader(payload(64)), cancel: cancel}
	var dst bytes.Buffer

	n, err := Copy(ctx, &dst, src, 8)

	assert.ErrorIs(t, err, ErrCopyInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(16), n)
	assert.Equal(t, 2, src.reads)
}

func TestCopy_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var dst bytes.Buffer

	n, err := Copy(ctx, &dst, strings.NewReader("data"), 8)

	assert.ErrorIs(t, err, ErrCopyInterrupted)
	assert.Zero(t, n)
	assert.Zero(t, dst.Len())
}
