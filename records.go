package biff

import (
	"io"
)

// RecordList is an ordered run of records written back to back, e.g. the
// workbook globals substream from BOF to EOF. Records carry their own length,
// so there is no padding between items.
type RecordList[T Codec] struct {
	Items []T
}

var _ Codec = (*RecordList[Codec])(nil)

// NewRecordList creates a list holding items.
func NewRecordList[T Codec](items ...T) *RecordList[T] {
	return &RecordList[T]{Items: items}
}

// Add appends records to the list.
func (l *RecordList[T]) Add(items ...T) { l.Items = append(l.Items, items...) }

// Count returns the number of records.
func (l *RecordList[T]) Count() int { return len(l.Items) }

// Len returns the encoded size of all records, headers included.
func (l *RecordList[T]) Len() int {
	total := 0
	for _, item := range l.Items {
		total += item.Len()
	}
	return total
}

// Offsets returns the stream offset of every record relative to the start of
// the list. BOUNDSHEET records need these before the sheets are written.
func (l *RecordList[T]) Offsets() []int {
	offsets := make([]int, len(l.Items))
	pos := 0
	for i, item := range l.Items {
		offsets[i] = pos
		pos += item.Len()
	}
	return offsets
}

// WriteTo writes every record in order.
func (l *RecordList[T]) WriteTo(writer io.Writer) (int64, error) {
	if len(l.Items) == 0 {
		return 0, nil
	}
	w, err := NewWriter(writer)
	if err != nil {
		return 0, err
	}
	for _, item := range l.Items {
		w.WriteFrom(item)
	}
	return w.Result()
}

// Close releases the storage of every item that holds any.
func (l *RecordList[T]) Close() error {
	var first error
	for _, item := range l.Items {
		if c, ok := any(item).(io.Closer); ok {
			if err := c.Close(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// --- Boilerplate implementations ---

func (l *RecordList[T]) MarshalBinary() ([]byte, error) {
	return MarshalBinaryGeneric(l)
}

func (l *RecordList[T]) MarshalTo(buf []byte) (int, error) {
	return MarshalToGeneric(l, buf)
}
