package biff

import "errors"

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("biff: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrAlreadyBuffered indicates that NewWriter was handed a bufio.Writer smaller
	// than requested, which would lead to double buffering.
	ErrAlreadyBuffered = errors.New("biff: writer is already buffered")

	// ErrStoreExhausted indicates that the slot store could not satisfy a capacity
	// request within its configured limits.
	ErrStoreExhausted = errors.New("biff: slot store exhausted")

	// ErrInvalidSlot indicates a slot index that is unknown to the store or was released.
	ErrInvalidSlot = errors.New("biff: invalid slot index")

	// ErrOutOfBounds indicates a read or patch at or past the logical length of a buffer.
	ErrOutOfBounds = errors.New("biff: index out of bounds")

	// ErrInvalidArgument indicates a malformed call, e.g. a nil source with a nonzero count.
	ErrInvalidArgument = errors.New("biff: invalid argument")

	// ErrInvalidLayout indicates an unrecognized string layout.
	ErrInvalidLayout = errors.New("biff: unknown string layout")

	// ErrStringTooLong indicates a string whose length does not fit the layout's length prefix.
	ErrStringTooLong = errors.New("biff: string too long for layout")

	// ErrNoConverter indicates that a string needed narrow/wide conversion but no
	// TextConverter was supplied.
	ErrNoConverter = errors.New("biff: text conversion required but no converter given")

	// ErrUnbound indicates a read or patch on a buffer that has no slot yet.
	ErrUnbound = errors.New("biff: buffer has no storage")

	// ErrClosed indicates use of a buffer after Close.
	ErrClosed = errors.New("biff: buffer is closed")

	// ErrInvariant indicates an internal consistency violation. Debug builds panic instead.
	ErrInvariant = errors.New("biff: internal invariant violated")

	// ErrRecordTooLarge indicates a record body longer than MaxRecordBody.
	ErrRecordTooLarge = errors.New("biff: record body too large")

	// ErrTrailingData is returned by UnmarshalBinaryGeneric when non-zero bytes follow
	// the decoded structure.
	ErrTrailingData = errors.New("biff: non-zero trailing data found after decoding")

	// ErrTruncatedData indicates the source ended before all expected bytes were read.
	ErrTruncatedData = errors.New("biff: truncated data")

	// ErrInvalidWrite indicates that an io.Writer returned an invalid (negative) count from Write.
	ErrInvalidWrite = errors.New("biff: writer returned invalid count from Write")

	// ErrWriteToNil indicates a WriteTo operation was attempted on a nil io.Writer.
	ErrWriteToNil = errors.New("biff: WriteTo called with a nil io.Writer")
)
