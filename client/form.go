package client

import (
	"net/url"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/adamwoolhether/httpcli/client/content"
)

// FormContentType is the Content-Type of an encoded [Form].
const FormContentType = "application/x-www-form-urlencoded"

// Form builds an application/x-www-form-urlencoded body. Unlike
// [url.Values] it keeps pairs in insertion order, and it percent-encodes
// the bytes of the chosen character encoding.
type Form struct {
	enc   encoding.Encoding
	pairs [][2]string
}

// NewForm returns an empty Form. A nil enc means UTF-8.
func NewForm(enc encoding.Encoding) *Form {
	if enc == nil {
		enc = content.UTF8
	}

	return &Form{enc: enc}
}

// Add appends a pair. Pairs with an empty key or value are ignored.
func (f *Form) Add(key, value string) {
	if key == "" || value == "" {
		return
	}
	f.pairs = append(f.pairs, [2]string{key, value})
}

// Reset removes all pairs.
func (f *Form) Reset() {
	f.pairs = f.pairs[:0]
}

// Encode returns the encoded form, e.g. "query=api&ver=2".
func (f *Form) Encode() (string, error) {
	var sb strings.Builder
	for i, p := range f.pairs {
		if i > 0 {
			sb.WriteByte('&')
		}

		k, err := f.escape(p[0])
		if err != nil {
			return "", err
		}
		v, err := f.escape(p[1])
		if err != nil {
			return "", err
		}

		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(v)
	}

	return sb.String(), nil
}

// Content returns the encoded form as a request body.
func (f *Form) Content() (*content.Content, error) {
	s, err := f.Encode()
	if err != nil {
		return nil, err
	}

	return content.FromUTF8(s), nil
}

// formEscaper matches the application/x-www-form-urlencoded byte set
// browsers emit: '*' stays literal and '~' is escaped.
var formEscaper = strings.NewReplacer("%2A", "*", "~", "%7E")

// escape transcodes s and percent-encodes the resulting bytes.
func (f *Form) escape(s string) (string, error) {
	c, err := content.FromString(s, f.enc)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if _, err := c.WriteTo(&sb); err != nil {
		return "", err
	}

	return formEscaper.Replace(url.QueryEscape(sb.String())), nil
}
