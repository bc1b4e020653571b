package biff

import (
	"encoding/binary"
	"testing"
)

type benchmarkCell struct {
	Row   uint16
	Col   uint16
	XF    uint16
	Value float64
}

type benchmarkRecord = FixedRecord[benchmarkCell]

func BenchmarkFixedMarshalBinary(b *testing.B) {
	c := NewFixedRecord(0x0203, benchmarkCell{Row: 1, Col: 2, Value: 100})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.MarshalBinary()
	}
}

func BenchmarkFixedUnmarshalBinary(b *testing.B) {
	c := NewFixedRecord(0x0203, benchmarkCell{Row: 1, Col: 2, Value: 100})
	data, _ := c.MarshalBinary()
	var c2 benchmarkRecord
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c2.UnmarshalBinary(data)
	}
}

func BenchmarkFixedMarshalTo(b *testing.B) {
	c := NewFixedRecord(0x0203, benchmarkCell{Row: 1, Col: 2, Value: 100})
	buf := make([]byte, c.Len())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.MarshalTo(buf)
	}
}

// Baseline comparison using only binary.Write directly, to see overhead of the wrapper
func BenchmarkStandardBinaryWrite(b *testing.B) {
	cell := benchmarkCell{Row: 1, Col: 2, Value: 100}
	buf := make([]byte, binary.Size(cell))
	w := NewBytesWriter(buf) // using same writer as library
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Reset()
		_ = binary.Write(w, Order, &cell)
	}
}

func BenchmarkBufferAppend(b *testing.B) {
	store := NewStore(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := NewBuffer(store)
		for j := 0; j < 256; j++ {
			_ = buf.AppendUint16(uint16(j))
			_ = buf.AppendUint32(uint32(j))
		}
		buf.Close()
	}
}

func BenchmarkAppendString(b *testing.B) {
	store := NewStore(nil)
	b.Run("ASCII", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := NewBuffer(store)
			_ = buf.AppendString(nil, "Quarterly revenue by region", Len2Flags)
			buf.Close()
		}
	})
	b.Run("Wide", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			buf := NewBuffer(store)
			_ = buf.AppendString(nil, "Umsatz je Quartal für Köln", Len2Flags)
			buf.Close()
		}
	})
}

func BenchmarkRecordFinish(b *testing.B) {
	store := NewStore(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec, err := NewLabelRecord(store, nil, 1, 1, 15, "Total")
		if err != nil {
			b.Fatal(err)
		}
		rec.Close()
	}
}
