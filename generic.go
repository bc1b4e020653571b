package biff

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
)

// MarshalBinaryGeneric provides an `encoding.BinaryMarshaler` for any type
// that can size itself and stream its encoding.
func MarshalBinaryGeneric[T interface {
	Len() int
	io.WriterTo
}](v T) ([]byte, error) {
	expected := v.Len()
	w := NewBytesWriter(make([]byte, expected))
	n, err := v.WriteTo(w)
	if err != nil {
		return nil, err
	}
	if n < int64(expected) {
		return nil, fmt.Errorf("%w: expected %d bytes, but wrote %d", ErrTruncatedData, expected, n)
	}
	return w.Bytes(), nil
}

// UnmarshalBinaryGeneric adapts a stream-based `ReadFrom` to `UnmarshalBinary`
// and rejects non-zero trailing data.
func UnmarshalBinaryGeneric[T interface {
	io.ReaderFrom
	Len() int
}](v T, data []byte) error {
	r := NewBytesReader(data)
	n, err := v.ReadFrom(r)
	if err != nil {
		return err
	}
	if expected := v.Len(); n < int64(expected) {
		return fmt.Errorf("%w: expected %d bytes, but read %d", ErrTruncatedData, expected, n)
	}
	if len(data) > int(n) {
		return CheckBufferNotZeros(data[n:])
	}
	return nil
}

// ReadFromGeneric provides a non-streaming `io.ReaderFrom`: the whole reader
// is buffered before UnmarshalBinary runs. Suitable for single records only.
func ReadFromGeneric[T encoding.BinaryUnmarshaler](v T, r io.Reader) (int64, error) {
	buf := bytesBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bytesBufPool.Put(buf)

	n, err := buf.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return n, v.UnmarshalBinary(buf.Bytes())
}

// MarshalToGeneric provides MarshalTo on top of Len and WriteTo.
func MarshalToGeneric[T interface {
	Len() int
	io.WriterTo
}](v T, p []byte) (int, error) {
	size := v.Len()
	if len(p) < size {
		return 0, io.ErrShortWrite
	}
	w := NewBytesWriter(p)
	n, err := v.WriteTo(w)
	if err != nil {
		return int(n), err
	}
	if n < int64(size) {
		return int(n), io.ErrShortWrite
	}
	return int(n), nil
}
