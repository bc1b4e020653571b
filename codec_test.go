package biff

import (
	"bufio"
	"bytes"
	"io"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mocks and Helpers ---

// mockFlushingWriter helps verify that a writer's Flush method is called.
type mockFlushingWriter struct {
	bytes.Buffer
	flushed bool
}

func (m *mockFlushingWriter) Flush() error {
	m.flushed = true
	return nil
}

// --- Writer Test Suite ---

type WriterTestSuite struct {
	suite.Suite
	buf    *bytes.Buffer
	writer *Writer
}

// SetupTest runs before each test in the suite, ensuring a clean state.
func (s *WriterTestSuite) SetupTest() {
	s.buf = &bytes.Buffer{}
	s.writer, _ = NewWriter(s.buf)
}

func (s *WriterTestSuite) TestConstructors() {
	s.T().Run("NilWriter", func(t *testing.T) {
		_, err := NewWriter(nil)
		assert.ErrorIs(t, err, ErrNilIO)
	})

	s.T().Run("AlreadyBuffered", func(t *testing.T) {
		_, err := NewWriterSize(bufio.NewWriterSize(&bytes.Buffer{}, 16), 1024)
		assert.ErrorIs(t, err, ErrAlreadyBuffered)
	})
}

func (s *WriterTestSuite) TestBasicWrites() {
	eof := NewEOF()

	s.writer.WriteUint8(0xAA)
	s.writer.WriteUint16(0xBBCC)
	s.writer.WriteUint32(0xDDEEFF00)
	s.writer.WriteUint64(0x0102030405060708)
	s.writer.WriteBytes([]byte{5, 6, 7})
	s.writer.WriteZeros(2)
	s.writer.WriteFrom(eof)

	n, err := s.writer.Result()
	s.Require().NoError(err)
	s.Assert().EqualValues(1+2+4+8+3+2+4, n)
	s.Assert().EqualValues(s.buf.Len(), s.writer.Count())

	expected := []byte{
		0xAA,
		0xCC, 0xBB,
		0x00, 0xFF, 0xEE, 0xDD,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		5, 6, 7,
		0, 0,
		0x0A, 0x00, 0x00, 0x00, // WriteFrom(EOF record)
	}
	s.Assert().Equal(expected, s.buf.Bytes())
}

func (s *WriterTestSuite) TestWriteRecord() {
	s.writer.WriteRecord(RecCodepage, []byte{0xE4, 0x04})
	s.writer.WriteRecord(RecEOF, nil)
	_, err := s.writer.Result()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x42, 0x00, 0x02, 0x00, 0xE4, 0x04, 0x0A, 0x00, 0x00, 0x00}, s.buf.Bytes())

	s.T().Run("TooLarge", func(t *testing.T) {
		var out bytes.Buffer
		w, _ := NewWriter(&out)
		w.WriteRecord(RecLabel, make([]byte, MaxRecordBody+1))
		w.WriteRecord(RecEOF, nil)
		_, err := w.Result()
		require.ErrorIs(t, err, ErrRecordTooLarge)
		assert.Contains(t, err.Error(), "record LABEL")
		assert.Zero(t, out.Len(), "nothing is written after the failure")
	})
}

func (s *WriterTestSuite) TestErrorHandling() {
	s.T().Run("ShortBufferError", func(t *testing.T) {
		fixedBuf := make([]byte, 5)
		writer, _ := NewWriter(NewBytesWriter(fixedBuf))

		writer.WriteUint32(0x11223344)
		writer.WriteUint32(0xAABBCCDD)

		_, err := writer.Result()
		require.Error(t, err)
		assert.ErrorIs(t, err, io.ErrShortWrite)
	})

	s.T().Run("WriteAfterErrorIsNoOp", func(t *testing.T) {
		fixedBuf := make([]byte, 5)
		writer, _ := NewWriter(NewBytesWriter(fixedBuf))

		writer.WriteUint32(0x11223344)
		writer.WriteUint32(0xAABBCCDD)

		firstErr := writer.Err()
		require.ErrorIs(t, firstErr, io.ErrShortWrite)

		writer.WriteUint8(0xFF)
		writer.Flush()

		assert.Equal(t, firstErr, writer.Err(), "The latched error should not change")
		assert.Equal(t, []byte{0x44, 0x33, 0x22, 0x11, 0xDD}, fixedBuf)
		assert.EqualValues(t, 5, writer.Count())
	})
}

func (s *WriterTestSuite) TestFlush() {
	mock := &mockFlushingWriter{}
	writer, _ := NewWriterSize(mock, 128)
	writer.WriteUint8(0xAA)

	// Before flush, data is in the buffer, but not in the underlying writer.
	s.Assert().True(writer.w.(*bufioWriterAdapter).Buffered() > 0)
	s.Assert().Zero(mock.Len())

	writer.Flush()

	s.Assert().False(mock.flushed, "bufio.Writer does not forward Flush")
	s.Assert().Zero(writer.w.(*bufioWriterAdapter).Buffered())
	s.Assert().Equal(1, mock.Buffer.Len())
}

func (s *WriterTestSuite) TestNestedWriterDoesNotFlush() {
	var out bytes.Buffer
	// A plain io.Writer, so the outer writer buffers through bufio.
	outer, err := NewWriterSize(struct{ io.Writer }{&out}, 64)
	s.Require().NoError(err)
	outer.WriteUint8(1)

	inner, err := NewWriter(outer)
	s.Require().NoError(err)
	inner.WriteUint8(2)
	inner.Flush()
	s.Assert().Zero(out.Len(), "only the outermost writer flushes")

	_, err = outer.Result()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{1, 2}, out.Bytes())
}

func (s *WriterTestSuite) TestIntoBuffer() {
	b := NewBuffer(nil)
	defer b.Close()

	w, err := NewWriter(b)
	s.Require().NoError(err)
	w.WriteUint16(0x0809)
	w.WriteFloat64(1)
	_, _ = w.WriteString("ok")
	_, err = w.Result()
	s.Require().NoError(err)
	s.Assert().Equal([]byte{0x09, 0x08, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F, 'o', 'k'}, b.Bytes())
}

// TestWriter runs the WriterTestSuite.
func TestWriter(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

// --- Reader Test Suite ---

type ReaderTestSuite struct {
	suite.Suite
}

func (s *ReaderTestSuite) TestConstructors() {
	s.T().Run("NilReader", func(t *testing.T) {
		_, err := NewReader(nil)
		assert.ErrorIs(t, err, ErrNilIO)
	})

	s.T().Run("PlainReaderGetsDefaultBuffer", func(t *testing.T) {
		r, err := NewReader(io.LimitReader(bytes.NewReader(nil), 0))
		require.NoError(t, err)
		assert.Equal(t, BUFFER_SIZE, r.Size())
	})
}

func (s *ReaderTestSuite) TestSuccessfulReads() {
	data := []byte{
		0xAA,
		0xCC, 0xBB,
		0x00, 0xFF, 0xEE, 0xDD,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x11, 0x22, 0x33,
	}
	r, _ := NewReader(bytes.NewReader(data))

	var v8 uint8
	var v16 uint16
	var v32 uint32
	var v64 uint64
	r.ReadUint8(&v8)
	r.ReadUint16(&v16)
	r.ReadUint32(&v32)
	r.ReadUint64(&v64)
	read := r.ReadBytes(3)

	s.Require().NoError(r.Err())
	s.Assert().Equal(uint8(0xAA), v8)
	s.Assert().Equal(uint16(0xBBCC), v16)
	s.Assert().Equal(uint32(0xDDEEFF00), v32)
	s.Assert().Equal(uint64(0x0102030405060708), v64)
	s.Assert().Equal([]byte{0x11, 0x22, 0x33}, read)

	// The next read should result in a clean EOF.
	r.Read(make([]byte, 1))
	s.Assert().ErrorIs(r.Err(), io.EOF)
	s.Assert().True(r.IsEOF())
}

func (s *ReaderTestSuite) TestErrorHandling() {
	s.T().Run("ReadPastEOF", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}))
		var v32 uint32
		r.ReadUint32(&v32)

		assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
		assert.False(t, r.IsEOF(), "ErrUnexpectedEOF should not be considered a clean EOF")
	})

	s.T().Run("ReadAfterErrorIsNoOp", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader([]byte{0x01, 0x02, 0x03}))
		var v32 uint32
		var v8 uint8

		r.ReadUint32(&v32)
		firstErr := r.Err()
		require.Error(t, firstErr)

		r.ReadUint8(&v8)
		assert.Equal(t, firstErr, r.Err(), "The latched error should not change")
		assert.Equal(t, uint8(0), v8, "Destination variable should be unchanged after an error")
	})

	s.T().Run("WriteToNilWriter", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader([]byte{1}))
		_, err := r.WriteTo(nil)
		assert.ErrorIs(t, err, ErrWriteToNil)
	})
}

func (s *ReaderTestSuite) TestRecords() {
	var stream bytes.Buffer
	w, _ := NewWriter(&stream)
	w.WriteFrom(NewBOF(BOFWorkbookGlobals))
	w.WriteRecord(RecCodepage, []byte{0xE4, 0x04})
	w.WriteFrom(NewEOF())
	_, err := w.Result()
	s.Require().NoError(err)

	s.T().Run("EachRecord", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader(stream.Bytes()))
		var headers []RecordHeader
		err := r.EachRecord(func(h RecordHeader, body []byte) error {
			headers = append(headers, h)
			assert.Len(t, body, int(h.Len))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []RecordHeader{{RecBOF, 16}, {RecCodepage, 2}, {RecEOF, 0}}, headers)
		assert.EqualValues(t, stream.Len(), r.Count())
	})

	s.T().Run("EmptyBodyIsNotNil", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader([]byte{0x0A, 0x00, 0x00, 0x00}))
		h, body := r.ReadRecord()
		require.NoError(t, r.Err())
		assert.Equal(t, RecEOF, h.Type)
		assert.NotNil(t, body)
		assert.Empty(t, body)

		r.ReadRecord()
		assert.True(t, r.IsEOF())
	})

	s.T().Run("TruncatedHeader", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader(stream.Bytes()[:2]))
		r.ReadRecord()
		assert.ErrorIs(t, r.Err(), io.ErrUnexpectedEOF)
	})

	s.T().Run("TruncatedBody", func(t *testing.T) {
		r, _ := NewReader(bytes.NewReader(stream.Bytes()[:10]))
		err := r.EachRecord(func(RecordHeader, []byte) error { return nil })
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
}

func (s *ReaderTestSuite) TestReadString() {
	encodeAll := func(t *testing.T, l StringLayout, texts ...string) *Reader {
		b := NewBuffer(nil)
		t.Cleanup(func() { b.Close() })
		for _, text := range texts {
			require.NoError(t, b.AppendString(latin1{}, text, l))
		}
		r, err := NewReader(NewBytesReader(b.Bytes()))
		require.NoError(t, err)
		return r
	}
	decode := func(u []uint16) string { return string(utf16.Decode(u)) }

	for _, l := range []StringLayout{Len2Flags, Len1Flags} {
		s.T().Run(l.String(), func(t *testing.T) {
			r := encodeAll(t, l, "plain", "é日", "")
			assert.Equal(t, "plain", decode(r.ReadString(nil, l, 0)))
			assert.Equal(t, "é日", decode(r.ReadString(nil, l, 0)))
			assert.Equal(t, "", decode(r.ReadString(nil, l, 0)))
			require.NoError(t, r.Err())
		})
	}

	s.T().Run("Len1NoFlags", func(t *testing.T) {
		r := encodeAll(t, Len1NoFlags, "Zoë")
		assert.Equal(t, "Zoë", decode(r.ReadString(latin1{}, Len1NoFlags, 0)))
		require.NoError(t, r.Err())
	})

	s.T().Run("NoLenFlags", func(t *testing.T) {
		r := encodeAll(t, NoLenFlags, "Name")
		assert.Equal(t, "Name", decode(r.ReadString(nil, NoLenFlags, 4)))
		require.NoError(t, r.Err())
	})

	s.T().Run("Padded", func(t *testing.T) {
		r := encodeAll(t, Len2NoFlagsPadded, "abc", "€")
		assert.Equal(t, "abc", decode(r.ReadPaddedString(false)))
		assert.Equal(t, "€", decode(r.ReadPaddedString(true)))
		require.NoError(t, r.Err())

		r = encodeAll(t, Len2NoFlagsPadded, "abc")
		r.ReadString(nil, Len2NoFlagsPadded, 0)
		assert.ErrorIs(t, r.Err(), ErrInvalidLayout)
	})

	s.T().Run("UnknownFlags", func(t *testing.T) {
		r, _ := NewReader(NewBytesReader([]byte{1, 0, 0x08, 'x'}))
		r.ReadString(nil, Len2Flags, 0)
		assert.ErrorIs(t, r.Err(), ErrInvalidArgument)
	})
}

func (s *ReaderTestSuite) TestNumberCell() {
	var stream bytes.Buffer
	w, _ := NewWriter(&stream)
	w.WriteUint16(3) // row
	w.WriteUint16(1) // col
	w.WriteUint16(15)
	w.WriteFloat64(-1234.5)
	_, err := w.Result()
	s.Require().NoError(err)

	r, _ := NewReader(bytes.NewReader(stream.Bytes()))
	var row, col, xf uint16
	var value float64
	r.ReadUint16(&row)
	r.ReadUint16(&col)
	r.ReadUint16(&xf)
	r.ReadFloat64(&value)
	s.Require().NoError(r.Err())
	s.Assert().Equal([]uint16{3, 1, 15}, []uint16{row, col, xf})
	s.Assert().Equal(-1234.5, value)

	r.ReadFloat64(&value)
	s.Assert().ErrorIs(r.Err(), io.ErrUnexpectedEOF)
	s.Assert().Equal(-1234.5, value, "unchanged after a failed read")
}

func (s *ReaderTestSuite) TestDiscard() {
	r, _ := NewReader(bytes.NewBufferString("abcdef"))
	r.Discard(2)
	s.Assert().Equal([]byte("cd"), r.ReadBytes(2))
	r.Discard(5)
	s.Assert().ErrorIs(r.Err(), io.ErrUnexpectedEOF)
}

// TestReader runs the ReaderTestSuite.
func TestReader(t *testing.T) {
	suite.Run(t, new(ReaderTestSuite))
}

// --- Generic helpers ---

func TestMarshalToGeneric(t *testing.T) {
	rec := NewCodepage(1252)
	p := make([]byte, 16)
	n, err := MarshalToGeneric(rec, p)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{0x42, 0x00, 0x02, 0x00, 0xE4, 0x04}, p[:n])

	_, err = MarshalToGeneric(rec, p[:5])
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

func TestUnmarshalBinaryGeneric(t *testing.T) {
	var got FixedRecord[Codepage]
	require.NoError(t, UnmarshalBinaryGeneric(&got, []byte{0x42, 0x00, 0x02, 0x00, 0xE4, 0x04, 0x00}))
	assert.Equal(t, uint16(1252), got.Body.CodePage)

	err := UnmarshalBinaryGeneric(&got, []byte{0x42, 0x00, 0x02, 0x00, 0xE4, 0x04, 0x07})
	assert.ErrorIs(t, err, ErrTrailingData)
}

func TestReadFromGeneric(t *testing.T) {
	var got FixedRecord[Codepage]
	n, err := ReadFromGeneric(&got, bytes.NewReader([]byte{0x42, 0x00, 0x02, 0x00, 0xB0, 0x04}))
	require.NoError(t, err)
	assert.EqualValues(t, 6, n)
	assert.Equal(t, UTF16CodePage, got.Body.CodePage)
}

func TestCheckBufferNotZeros(t *testing.T) {
	assert.NoError(t, CheckBufferNotZeros(nil))
	assert.NoError(t, CheckBufferNotZeros(make([]byte, 8)))
	err := CheckBufferNotZeros([]byte{0, 0, 3})
	assert.ErrorIs(t, err, ErrTrailingData)
	assert.Contains(t, err.Error(), "offset 2")
}
