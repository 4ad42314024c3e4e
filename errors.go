package recdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEncodingFailure = errors.New("encoding failure")
	ErrDecodingFailure = errors.New("decoding failure")
	ErrInvalidText     = errors.New("invalid text")
)

type CodecErrorKind int

const (
	EncodingFailure CodecErrorKind = iota + 1
	DecodingFailure
	InvalidText
)

func (k CodecErrorKind) sentinel() error {
	switch k {
	case EncodingFailure:
		return ErrEncodingFailure
	case DecodingFailure:
		return ErrDecodingFailure
	case InvalidText:
		return ErrInvalidText
	default:
		return nil
	}
}

func (k CodecErrorKind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("CodecErrorKind(%d)", int(k))
}

// CodecError is returned by Codec implementations and propagated unchanged
// by StoreRecord and GetRecord. Use errors.Is with ErrEncodingFailure,
// ErrDecodingFailure or ErrInvalidText to check the kind.
type CodecError struct {
	Kind CodecErrorKind
	Err  error
}

func codecErr(kind CodecErrorKind, err error) error {
	return &CodecError{kind, err}
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Err.Error()
	}
	return e.Kind.String()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func (e *CodecError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

type DataError struct {
	Data []byte
	Off  int
	Err  error
	Msg  string
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return &DataError{data, off, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

type BucketError struct {
	Bucket string
	Key    []byte
	Msg    string
	Err    error
}

func bucketErrf(bucket string, key []byte, err error, format string, args ...any) error {
	return &BucketError{bucket, key, fmt.Sprintf(format, args...), err}
}

func (e *BucketError) Unwrap() error {
	return e.Err
}

func (e *BucketError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Bucket)
	if e.Key != nil {
		buf.WriteByte('/')
		buf.WriteString(hexstr(e.Key))
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
