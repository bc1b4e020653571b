package biff

import (
	"encoding"
	"io"
)

// Lener is implemented by values that know their encoded size in bytes.
// Buffers, records and record lists all report it, which lets a workbook
// writer lay out stream offsets before anything is written.
type Lener interface {
	// Len returns the encoded size in bytes.
	Len() int
}

// Marshaler defines the ways an encoded value can be produced.
type Marshaler interface {
	// encoding.BinaryMarshaler allocates and returns the encoded bytes.
	encoding.BinaryMarshaler
	// io.WriterTo streams the encoded bytes.
	io.WriterTo
	// MarshalTo encodes into p, failing with io.ErrShortWrite when p is too small.
	MarshalTo(p []byte) (int, error)
}

// Unmarshaler defines the ways a value can be decoded.
type Unmarshaler interface {
	encoding.BinaryUnmarshaler
	io.ReaderFrom
}

// Codec is a self-sizing encoder. Every record in a BIFF stream is one.
type Codec interface {
	Lener
	Marshaler
}
