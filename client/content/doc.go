// Package content provides the body payload used by the client for both
// outgoing requests and materialized responses.
//
// # Content
//
// A [Content] is backed either by an in-memory buffer or by a file on disk.
// It is immutable once built and exposes the same operations for both
// backings:
//
//	c := content.FromUTF8("hello")
//	n := c.Size() // 5
//	_, err := c.WriteTo(os.Stdout)
//	c.Delete()
//
// A nil *Content and [Empty] both represent zero-length content.
//
// # Materializing Response Bodies
//
// [Materialize] turns a stream of unknown length into a Content. Bytes are
// buffered in memory until the memory limit is exceeded, at which point
// everything read so far is flushed to a temporary file and the rest of
// the stream follows it there:
//
//	body, err := content.Materialize(ctx, resp.Body,
//		content.WithMemoryLimit(64<<10),
//	)
//	defer body.Delete()
//
// File-backed results are owned by the caller. Call [Content.Delete] once
// the content is no longer needed, otherwise spill files are left behind.
package content
