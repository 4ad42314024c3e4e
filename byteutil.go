package recdb

import "encoding/binary"

const idKeySize = 8

func appendIDKey(buf []byte, id ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

func decodeIDKey(key []byte) (ID, error) {
	if len(key) != idKeySize {
		return 0, dataErrf(key, 0, nil, "invalid id key length %d", len(key))
	}
	return ID(binary.BigEndian.Uint64(key)), nil
}

func appendBalance(buf []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(v))
}

func decodeBalance(data []byte) (int64, error) {
	if len(data) != 8 {
		return 0, dataErrf(data, 0, nil, "invalid balance length %d", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	return binary.AppendUvarint(buf, v)
}

type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.Buf)
	if n <= 0 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "invalid uvarint")
	}
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) Rest() []byte {
	v := d.Buf
	d.Buf = nil
	return v
}
