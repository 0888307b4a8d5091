package content

import (
	"bytes"
	"errors"
	"io"
	"math"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// MaxTextSize is the largest payload Text and ReadText will decode.
const MaxTextSize = math.MaxInt32

var (
	// UTF8 is strict: invalid sequences fail with ErrEncoding instead of
	// being replaced.
	UTF8 encoding.Encoding = unicode.UTF8
	// Latin1 is ISO-8859-1.
	Latin1 encoding.Encoding = charmap.ISO8859_1
)

var errInvalidUTF8 = errors.New("invalid utf-8")

// FromString encodes s with enc. A nil enc means UTF8. Runes that enc
// cannot represent fail with ErrEncoding.
func FromString(s string, enc encoding.Encoding) (*Content, error) {
	if enc == nil || enc == UTF8 {
		if !utf8.ValidString(s) {
			return nil, &Error{Kind: ErrEncoding, Op: "encode", Err: errInvalidUTF8}
		}

		return FromBytes([]byte(s)), nil
	}

	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, &Error{Kind: ErrEncoding, Op: "encode", Err: err}
	}

	return FromBytes(b), nil
}

// FromUTF8 stores the bytes of s as they are.
func FromUTF8(s string) *Content {
	return FromBytes([]byte(s))
}

// FromLatin1 encodes s as ISO-8859-1.
func FromLatin1(s string) (*Content, error) {
	return FromString(s, Latin1)
}

// Text decodes the whole payload with enc. A nil enc means UTF8.
func (c *Content) Text(enc encoding.Encoding) (string, error) {
	if c.IsEmpty() {
		return "", nil
	}
	if c.Size() > MaxTextSize {
		return "", &Error{Kind: ErrOverflow, Op: "text", Path: c.Path()}
	}

	rc, err := c.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	return ReadText(rc, enc)
}

// TextUTF8 is Text(UTF8).
func (c *Content) TextUTF8() (string, error) {
	return c.Text(UTF8)
}

// TextLatin1 is Text(Latin1).
func (c *Content) TextLatin1() (string, error) {
	return c.Text(Latin1)
}

// ReadText reads r to io.EOF and decodes the bytes with enc. Streams longer
// than MaxTextSize fail with ErrOverflow.
func ReadText(r io.Reader, enc encoding.Encoding) (string, error) {
	var buf bytes.Buffer
	if _, err := Transfer(&buf, io.LimitReader(r, MaxTextSize+1)); err != nil {
		return "", err
	}
	if buf.Len() > MaxTextSize {
		return "", &Error{Kind: ErrOverflow, Op: "text"}
	}

	return decode(buf.Bytes(), enc)
}

func decode(b []byte, enc encoding.Encoding) (string, error) {
	if enc == nil || enc == UTF8 {
		if !utf8.Valid(b) {
			return "", &Error{Kind: ErrEncoding, Op: "decode", Err: errInvalidUTF8}
		}

		return string(b), nil
	}

	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", &Error{Kind: ErrEncoding, Op: "decode", Err: err}
	}

	return string(out), nil
}
