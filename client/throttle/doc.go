// Package throttle provides an [http.RoundTripper] that rate-limits
// outbound HTTP requests using a token-bucket algorithm from
// [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing transport with [NewRoundTripper]:
//
//	rt, err := throttle.NewRoundTripper(
//		throttle.Config{RPS: 10, Burst: 5},
//		func() *slog.Logger { return slog.Default() },
//		http.DefaultTransport,
//	)
//	httpClient := &http.Client{Transport: rt}
//
// When the rate limit is exceeded, outbound requests block until a
// token becomes available or the request context is cancelled. The
// client package installs it through client.WithThrottle.
//
// The limiter only gates when a request is sent. Once a response arrives
// the client reads its body under its own memory limit, buffering small
// bodies and spilling large ones to a temporary file, so a throttled
// client never holds more than that limit per response in memory.
package throttle
