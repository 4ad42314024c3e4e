package recdb

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
)

func TestZlibCodec_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	printable := make([]byte, 10000)
	for i := range printable {
		printable[i] = byte(' ' + rnd.Intn('~'-' '+1))
	}

	tests := map[string]string{
		"empty":     "",
		"hello":     "hello",
		"unicode":   "привет, 世界 🌍",
		"newlines":  "line 1\nline 2\r\n\ttabbed",
		"repeated":  strings.Repeat("abc", 100000),
		"printable": string(printable),
		"nul":       "a\x00b",
	}
	var c ZlibCodec
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			data := must(c.Compress(text))
			if len(data) == 0 {
				t.Fatalf("Compress returned no bytes")
			}
			deepEqual(t, must(c.Decompress(data)), text)
		})
	}
}

func TestZlibCodec_CompressesRepetitiveText(t *testing.T) {
	text := strings.Repeat("the same line again\n", 1000)
	data := must(ZlibCodec{}.Compress(text))
	if len(data) >= len(text)/10 {
		t.Errorf("compressed size = %d, wanted well under %d", len(data), len(text)/10)
	}
}

func TestZlibCodec_Deterministic(t *testing.T) {
	a := must(ZlibCodec{}.Compress("determinism"))
	b := must(ZlibCodec{}.Compress("determinism"))
	if !bytes.Equal(a, b) {
		t.Errorf("Compress is not deterministic: %x vs %x", a, b)
	}
}

func TestZlibCodec_Errors(t *testing.T) {
	var c ZlibCodec
	valid := must(c.Compress("hello, world"))
	invalidUTF8 := must(zlibBytes([]byte{0x66, 0xFF, 0xFE}))

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"nil", nil, ErrDecodingFailure},
		{"not zlib", []byte("hello"), ErrDecodingFailure},
		{"truncated", valid[:len(valid)-3], ErrDecodingFailure},
		{"bad checksum", flipLastByte(valid), ErrDecodingFailure},
		{"invalid utf-8", invalidUTF8, ErrInvalidText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := c.Decompress(tt.data)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decompress = (%q, %v), wanted %v", text, err, tt.want)
			}
			var ce *CodecError
			if !errors.As(err, &ce) {
				t.Fatalf("err = %T, wanted *CodecError", err)
			}
		})
	}

	_, err := c.Compress("\xc3\x28")
	if !errors.Is(err, ErrInvalidText) {
		t.Fatalf("Compress(invalid utf-8) err = %v, wanted invalid text", err)
	}
}

// zlibBytes compresses raw bytes, bypassing the text check in Compress.
func zlibBytes(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flipLastByte(b []byte) []byte {
	out := bytes.Clone(b)
	out[len(out)-1] ^= 0xFF
	return out
}
