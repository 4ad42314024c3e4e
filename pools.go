package recdb

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

var zlibWriterPool = &sync.Pool{
	New: func() any {
		return zlib.NewWriter(io.Discard)
	},
}

// Buffers that grew past this are dropped instead of pooled.
const maxPooledDecodeBuf = 1 << 20

var decodeBufPool = &sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

func releaseDecodeBuf(b *bytes.Buffer) {
	if b.Cap() > maxPooledDecodeBuf {
		return
	}
	b.Reset()
	decodeBufPool.Put(b)
}
