// bufwriter.go -- globally ordered stdout flush lane
//
// (c) 2022- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package rgx

import (
	"bytes"
	"io"
	"sync"
)

// BufWriter hands out per-worker scratch buffers and serialises the
// act of copying a whole buffer's contents to the underlying sink.
// Workers format into their own buffer to avoid lock contention on
// the hot path; only Print takes the lock, and it holds it for no
// longer than a single io.Writer call -- this is what delivers I1
// (a file's output is never interleaved with another's) without the
// lock becoming the bottleneck.
type BufWriter struct {
	mu   sync.Mutex
	w    io.Writer
	pool sync.Pool
}

// NewBufWriter returns a coordinator that flushes to w.
func NewBufWriter(w io.Writer) *BufWriter {
	bw := &BufWriter{w: w}
	bw.pool.New = func() any { return new(bytes.Buffer) }
	return bw
}

// Buffer checks out a growable, empty byte buffer for the caller's
// exclusive use until it is returned via Release.
func (bw *BufWriter) Buffer() *bytes.Buffer {
	buf := bw.pool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// Print atomically copies buf's contents to the sink, then empties
// buf so the caller can reuse it for the next file.
func (bw *BufWriter) Print(buf *bytes.Buffer) error {
	if buf.Len() == 0 {
		return nil
	}
	bw.mu.Lock()
	_, err := buf.WriteTo(bw.w)
	bw.mu.Unlock()
	return err
}

// Release returns buf to the pool for reuse by a later caller.
func (bw *BufWriter) Release(buf *bytes.Buffer) {
	buf.Reset()
	bw.pool.Put(buf)
}
