package biff

import (
	"bytes"
	"sync"
)

// bytesBufPool reuses buffers for ReadFromGeneric. A 4KB default covers the
// largest BIFF8 record body (8224 bytes) after one growth.
var bytesBufPool = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// unitsPool reuses UTF-16 scratch space for AppendString.
var unitsPool = sync.Pool{
	New: func() any {
		u := make([]uint16, 0, 256)
		return &u
	},
}

func getUnits() *[]uint16 {
	u := unitsPool.Get().(*[]uint16)
	*u = (*u)[:0]
	return u
}

func putUnits(u *[]uint16) {
	// Keep oversized scratch out of the pool.
	if cap(*u) > 64*1024 {
		return
	}
	unitsPool.Put(u)
}
