// Package client provides the core implementation of the configurable HTTP
// client built on [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithMemoryLimit(64 << 10),
//	)
//
// # Executing Requests
//
// Construct a [URL] and [Request], then run it with [Client.Execute]:
//
//	u := client.URL("https", "api.example.com", "/v1/resource")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	res := c.Execute(req)
//	defer res.Delete()
//
// The response body is materialized as a [content.Content]. Bodies up to
// the memory limit stay in memory; larger ones are moved to a temporary
// file as soon as the limit is crossed, so the whole body is never held in
// memory. A 304 body is discarded. With [WithOutputFile] a 2xx body is
// written straight to the given file.
//
// [Client.Do] wraps Execute for JSON APIs:
//
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// # Downloading Files
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	err = c.Download(req, http.StatusOK, "/tmp/file.bin",
//		client.WithChecksum(sha256.New(), expectedHex),
//		client.WithProgress(),
//	)
//
// The body lands in a temporary file next to the destination, which is
// renamed into place only once every check passes. A failed download
// leaves an existing destination as it was.
//
// # Form Bodies
//
// A [Form] keeps pairs in insertion order and percent-encodes them in the
// chosen character encoding:
//
//	f := client.NewForm(content.Latin1)
//	f.Add("query", "api")
//	req, err := client.Request(ctx, u, http.MethodPost, client.WithForm(f))
package client
