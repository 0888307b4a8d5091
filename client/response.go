package client

import (
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/adamwoolhether/httpcli/client/content"
)

// Response is the outcome of [Client.Execute].
//
// StatusCode is zero when no response arrived. Body is never nil; it is
// [content.Empty] when there was no body or it was discarded.
type Response struct {
	StatusCode    int
	Status        string
	Header        http.Header
	ContentLength int64
	Body          *content.Content
	Err           error
}

// Delete releases the body: memory is scrubbed and spill or output files are removed.
func (r *Response) Delete() {
	r.Body.Delete()
}

// Dump writes a human readable rendition of the response to w.
func (r *Response) Dump(w io.Writer) error {
	status := r.Status
	if status == "" {
		status = "<no response>"
	}

	if _, err := fmt.Fprintf(w, "---DUMP\nHTTP %s\n", status); err != nil {
		return err
	}

	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%v\n", k, r.Header[k]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "---BODY[%s]\n", r.Body.Kind()); err != nil {
		return err
	}
	if _, err := r.Body.WriteTo(w); err != nil {
		return err
	}

	if r.Err != nil {
		if _, err := fmt.Fprintf(w, "\n---ERROR: %v", r.Err); err != nil {
			return err
		}
	}

	_, err := fmt.Fprint(w, "\n---END\n")
	return err
}
