package recdb

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zlib"
)

// Codec turns text into a compact byte representation and back.
// Implementations must be lossless and must return *CodecError on failure.
type Codec interface {
	Compress(text string) ([]byte, error)
	Decompress(data []byte) (string, error)
}

// ZlibCodec compresses with zlib at the default level. The zero value is
// ready to use.
type ZlibCodec struct{}

var _ Codec = ZlibCodec{}

var defaultCodec Codec = ZlibCodec{}

func (ZlibCodec) Compress(text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, codecErr(InvalidText, nil)
	}

	var buf bytes.Buffer
	zw := zlibWriterPool.Get().(*zlib.Writer)
	defer zlibWriterPool.Put(zw)
	zw.Reset(&buf)

	if _, err := io.WriteString(zw, text); err != nil {
		return nil, codecErr(EncodingFailure, err)
	}
	if err := zw.Close(); err != nil {
		return nil, codecErr(EncodingFailure, err)
	}
	return buf.Bytes(), nil
}

func (ZlibCodec) Decompress(data []byte) (string, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", codecErr(DecodingFailure, err)
	}
	defer zr.Close()

	out := decodeBufPool.Get().(*bytes.Buffer)
	defer releaseDecodeBuf(out)

	if _, err := out.ReadFrom(zr); err != nil {
		return "", codecErr(DecodingFailure, err)
	}
	if !utf8.Valid(out.Bytes()) {
		return "", codecErr(InvalidText, nil)
	}
	return out.String(), nil
}
