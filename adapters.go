package biff

import (
	"bufio"
	"bytes"
	"io"
)

type (
	bytesReaderAdapter       struct{ *bytes.Reader }
	bytesBufferWriterAdapter struct{ *bytes.Buffer }
	bytesBufferReaderAdapter struct{ *bytes.Buffer }
	bufioWriterAdapter       struct{ *bufio.Writer }
	bufioReaderAdapter       struct{ *bufio.Reader }
	bufferWriterAdapter      struct{ *Buffer }
)

func (r *bytesReaderAdapter) Close() error       { return nil }
func (r *bufioReaderAdapter) Close() error       { return nil }
func (w *bufioWriterAdapter) Close() error       { return nil }
func (r *bytesBufferReaderAdapter) Close() error { return nil }
func (w *bytesBufferWriterAdapter) Close() error { return nil }
func (w *bytesBufferWriterAdapter) Flush() error { return nil }
func (w *bytesBufferWriterAdapter) Size() int    { return w.Available() }
func (r *bytesBufferReaderAdapter) Size() int    { return r.Len() }
func (r *bytesReaderAdapter) Size() int          { return int(r.Reader.Size()) }

// The adapter must not release the slot: the Buffer belongs to the caller.
func (w *bufferWriterAdapter) Close() error { return nil }
func (w *bufferWriterAdapter) Flush() error { return nil }

func (w *bufferWriterAdapter) WriteString(s string) (int, error) {
	if err := w.AppendBuffer([]byte(s), len(s)); err != nil {
		return 0, err
	}
	return len(s), nil
}

// ReadFrom appends everything r yields to the buffer.
func (w *bufferWriterAdapter) ReadFrom(r io.Reader) (int64, error) {
	var chunk [512]byte
	var total int64
	for {
		n, err := r.Read(chunk[:])
		if n > 0 {
			if werr := w.AppendBuffer(chunk[:n], n); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// Discard skips n bytes from a buffered reader by advancing its read pointer.
func (r *bytesBufferReaderAdapter) Discard(n int) (int, error) {
	if n > r.Buffer.Len() {
		n = r.Buffer.Len()
		r.Buffer.Next(n)
		return n, io.EOF
	}
	r.Buffer.Next(n)
	return n, nil
}

// Discard skips n bytes of r, using the reader's own Discard when it has one.
// A stream that ends early yields io.ErrUnexpectedEOF.
func Discard(r io.Reader, n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	if d, ok := r.(interface{ Discard(int) (int, error) }); ok && n <= int64(^uint(0)>>1) {
		skipped, err := d.Discard(int(n))
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return int64(skipped), err
	}
	skipped, err := io.CopyN(io.Discard, r, n)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return skipped, err
}
