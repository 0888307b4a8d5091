package client_test

import (
	"errors"
	"io"
	"net/http"
	"testing"

	"golang.org/x/text/encoding"

	"github.com/adamwoolhether/httpcli/client"
	"github.com/adamwoolhether/httpcli/client/content"
)

func TestForm_Encode(t *testing.T) {
	testCases := map[string]struct {
		enc    encoding.Encoding
		pairs  [][2]string
		exp    string
		expErr error
	}{
		"keepsInsertionOrder": {
			pairs: [][2]string{{"zeta", "1"}, {"alpha", "2"}, {"zeta", "3"}},
			exp:   "zeta=1&alpha=2&zeta=3",
		},
		"escapesReserved": {
			pairs: [][2]string{{"q", "a b&c=d"}},
			exp:   "q=a+b%26c%3Dd",
		},
		"starLiteralTildeEscaped": {
			pairs: [][2]string{{"glob", "*.txt~"}},
			exp:   "glob=*.txt%7E",
		},
		"utf8Bytes": {
			pairs: [][2]string{{"name", "café"}},
			exp:   "name=caf%C3%A9",
		},
		"latin1Bytes": {
			enc:   content.Latin1,
			pairs: [][2]string{{"name", "café"}},
			exp:   "name=caf%E9",
		},
		"skipsEmpty": {
			pairs: [][2]string{{"", "x"}, {"y", ""}, {"ok", "1"}},
			exp:   "ok=1",
		},
		"unmappableRune": {
			enc:    content.Latin1,
			pairs:  [][2]string{{"price", "5€"}},
			expErr: content.ErrEncoding,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			f := client.NewForm(tc.enc)
			for _, p := range tc.pairs {
				f.Add(p[0], p[1])
			}

			got, err := f.Encode()
			if !errors.Is(err, tc.expErr) {
				t.Fatalf("exp err %v, got: %v", tc.expErr, err)
			}
			if got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestForm_Reset(t *testing.T) {
	f := client.NewForm(nil)
	f.Add("a", "1")
	f.Reset()
	f.Add("b", "2")

	got, err := f.Encode()
	if err != nil {
		t.Fatalf("exp nil err, got: %v", err)
	}
	if got != "b=2" {
		t.Errorf("exp %q, got %q", "b=2", got)
	}
}

func TestClient_RequestWithForm(t *testing.T) {
	f := client.NewForm(nil)
	f.Add("query", "api")
	f.Add("ver", "2")

	req, err := client.Request(t.Context(), client.URL("http", "localhost", "/"), http.MethodPost, client.WithForm(f))
	if err != nil {
		t.Fatalf("create request exp nil err; got: %v", err)
	}

	if ct := req.Header.Get("Content-Type"); ct != client.FormContentType {
		t.Errorf("exp content type %q, got %q", client.FormContentType, ct)
	}

	got, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatalf("reading req body: %v", err)
	}
	if string(got) != "query=api&ver=2" {
		t.Errorf("exp form body %q, got %q", "query=api&ver=2", got)
	}
}
