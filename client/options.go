package client

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/httpcli/client/content"
	"github.com/adamwoolhether/httpcli/client/throttle"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client            *http.Client
	rt                http.RoundTripper
	timeout           *time.Duration
	userAgent         string
	requestIDHeader   string
	throttle          *throttle.Config
	noFollowRedirects bool
	logger            *slog.Logger
	memoryLimit       int64
	spillDir          string
	registerer        prometheus.Registerer
	tracerProvider    trace.TracerProvider
}

// WithClient replaces the default [http.Client] used by the [Client].
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithRequestID stamps each outgoing request with a random UUID in the
// given header, unless the request already carries one.
func WithRequestID(header string) Option {
	return func(c *options) error {
		if header == "" {
			return errors.New("request id header must not be empty")
		}
		c.requestIDHeader = http.CanonicalHeaderKey(header)
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		cfg := throttle.Config{RPS: rps, Burst: burst}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.throttle = &cfg
		return nil
	}
}

// WithNoFollowRedirects prevents the [Client] from following HTTP redirects.
func WithNoFollowRedirects() Option {
	return func(c *options) error {
		c.noFollowRedirects = true
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithMemoryLimit sets how many response body bytes are held in memory
// before the body spills to a temporary file. Defaults to
// [content.DefaultMemoryLimit].
func WithMemoryLimit(n int64) Option {
	return func(c *options) error {
		if n <= 0 {
			return fmt.Errorf("memory limit[%d] must be greater than zero", n)
		}
		c.memoryLimit = n
		return nil
	}
}

// WithSpillDir sets the directory spill files are created in.
// Defaults to [os.TempDir].
func WithSpillDir(dir string) Option {
	return func(c *options) error {
		c.spillDir = dir
		return nil
	}
}

// WithMetrics registers the client's collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *options) error {
		if reg == nil {
			return errors.New("registerer must not be nil")
		}
		c.registerer = reg
		return nil
	}
}

// WithTracerProvider traces each request with spans from tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *options) error {
		if tp == nil {
			return errors.New("tracer provider must not be nil")
		}
		c.tracerProvider = tp
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// requestID is an http.RoundTripper that sets a per-request UUID header.
type requestID struct {
	header string
	base   http.RoundTripper
}

func (rid requestID) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(rid.header) != "" {
		return rid.base.RoundTrip(r)
	}

	cpy := r.Clone(r.Context())
	cpy.Header.Set(rid.header, uuid.NewString())
	return rid.base.RoundTrip(cpy)
}

// ExecOption is a functional option for [Client.Execute].
//
// WithOutputFile writes a successful response body to path.
// WithHooks attaches per-call callbacks.
type ExecOption func(*execOpts) error

type execOpts struct {
	outFile   string
	freshness string
	hooks     Hooks
	tee       []io.Writer
	progress  bool
}

func WithOutputFile(path string) ExecOption {
	return func(opts *execOpts) error {
		if path == "" {
			return errors.New("output file must not be empty")
		}
		opts.outFile = path
		return nil
	}
}

// withFreshness takes the If-Modified-Since time from path instead of
// the output file.
func withFreshness(path string) ExecOption {
	return func(opts *execOpts) error {
		opts.freshness = path
		return nil
	}
}

func WithHooks(h Hooks) ExecOption {
	return func(opts *execOpts) error {
		opts.hooks = h
		return nil
	}
}

func withTee(w io.Writer) ExecOption {
	return func(opts *execOpts) error {
		opts.tee = append(opts.tee, w)
		return nil
	}
}

func withProgress() ExecOption {
	return func(opts *execOpts) error {
		opts.progress = true
		return nil
	}
}

// Hooks are optional callbacks invoked by [Client.Execute] for a single call.
type Hooks struct {
	// PreConnection runs before the request is sent.
	PreConnection func(*http.Request)
	// PostConnection runs once response headers arrive, before the body is read.
	PostConnection func(*http.Response)
	// Done runs after an execution without error.
	Done func(*http.Request, *Response)
	// Fail runs after an execution that ended with an error.
	Fail func(*http.Request, *Response)
}

// DoOption is a functional option for [Client.Do].
type DoOption func(options *doOpts) error

type doOpts struct {
	responseBody any
	useJSONNum   bool
}

// WithDestination decodes the HTTP response body into bodyTemplate.
// bodyTemplate must be a pointer.
func WithDestination[T any](bodyTemplate *T) DoOption {
	return func(opts *doOpts) error {
		opts.responseBody = bodyTemplate

		return nil
	}
}

// WithJSONNumb tells the JSON decoder to use [json.Decoder.UseNumber],
// preserving number precision as [json.Number] instead of float64.
func WithJSONNumb() DoOption {
	return func(opts *doOpts) error {
		opts.useJSONNum = true

		return nil
	}
}

// DownloadOption defines optional settings for [Client.Download].
type DownloadOption func(*downloadOpts) error

type downloadOpts struct {
	checksum     *checksumVerifier
	progress     bool
	skipExisting bool
}

// WithChecksum enables checksum validation of the downloaded file.
// h is a [hash.Hash] instance (e.g. sha256.New()), and expected is the
// hex-encoded expected checksum string.
func WithChecksum(h hash.Hash, expected string) DownloadOption {
	return func(opts *downloadOpts) error {
		if h == nil {
			return errors.New("hash must not be nil")
		}

		if expected == "" {
			return errors.New("expected checksum must not be empty")
		}

		opts.checksum = &checksumVerifier{hash: h, expected: expected}
		return nil
	}
}

// WithProgress enables periodic download progress logging.
func WithProgress() DownloadOption {
	return func(opts *downloadOpts) error {
		opts.progress = true
		return nil
	}
}

// WithSkipExisting causes a download to return nil immediately when
// the destination file already exists.
func WithSkipExisting() DownloadOption {
	return func(opts *downloadOpts) error {
		opts.skipExisting = true
		return nil
	}
}

// RequestOption is a functional option for [Request].
type RequestOption func(options *requestOpts) error

type requestOpts struct {
	payload     any
	body        *content.Content
	contentType *string
	cookies     []*http.Cookie
	headers     http.Header
}

// WithPayload sets the JSON-encoded request body.
func WithPayload(body any) RequestOption {
	return func(opts *requestOpts) error {
		opts.payload = body

		return nil
	}
}

// WithBody sends c as the request body. The request streams c when sent,
// so c must stay readable until then.
func WithBody(c *content.Content) RequestOption {
	return func(opts *requestOpts) error {
		opts.body = c

		return nil
	}
}

// WithForm sends f URL-encoded, with the form Content-Type.
func WithForm(f *Form) RequestOption {
	return func(opts *requestOpts) error {
		if f == nil {
			return errors.New("form must not be nil")
		}

		c, err := f.Content()
		if err != nil {
			return fmt.Errorf("encoding form: %w", err)
		}

		ct := FormContentType
		opts.body = c
		opts.contentType = &ct

		return nil
	}
}

// WithContentType overrides the default "application/json" Content-Type header.
func WithContentType(contentType string) RequestOption {
	return func(opts *requestOpts) error {
		if contentType == "" {
			return errors.New("cannot use empty content type")
		}

		opts.contentType = &contentType

		return nil
	}
}

// WithHeaders adds custom headers to the outgoing request.
func WithHeaders(headers map[string][]string) RequestOption {
	return func(opts *requestOpts) error {
		for k, v := range headers {
			for _, element := range v {
				opts.addHeader(k, element, false)
			}
		}

		return nil
	}
}

// WithHeader sets a single header, replacing earlier values for key.
// Empty keys or values are ignored.
func WithHeader(key, value string) RequestOption {
	return func(opts *requestOpts) error {
		opts.addHeader(key, value, true)

		return nil
	}
}

// WithCookies attaches the given cookies to the outgoing request.
func WithCookies(cookies ...*http.Cookie) RequestOption {
	return func(opts *requestOpts) error {
		opts.cookies = cookies

		return nil
	}
}

func (opts *requestOpts) addHeader(key, value string, replace bool) {
	if key == "" || value == "" {
		return
	}
	if opts.headers == nil {
		opts.headers = make(http.Header)
	}
	if replace {
		opts.headers.Set(key, value)
		return
	}
	opts.headers.Add(key, value)
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}
