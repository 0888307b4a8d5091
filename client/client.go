package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/httpcli/client/content"
	"github.com/adamwoolhether/httpcli/client/throttle"
)

const tracerName = "github.com/adamwoolhether/httpcli/client"

// Client wraps the std-lib *http.Client
// It sets a default *http.Client and *http.Transport, which
// can be customized via optional funcs.
type Client struct {
	c           *http.Client
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *metrics
	memoryLimit int64
	spillDir    string
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		c:           &http.Client{},
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer(tracerName),
		memoryLimit: content.DefaultMemoryLimit,
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.client != nil {
		client.c = opts.client
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}

	if opts.timeout != nil {
		client.c.Timeout = *opts.timeout
	}

	if opts.noFollowRedirects {
		client.c.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if opts.memoryLimit > 0 {
		client.memoryLimit = opts.memoryLimit
	}
	client.spillDir = opts.spillDir

	if opts.registerer != nil {
		m, err := newMetrics(opts.registerer)
		if err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
		client.metrics = m
	}

	var transport http.RoundTripper
	switch {
	case opts.rt != nil:
		transport = opts.rt
	case opts.client != nil && opts.client.Transport != nil:
		transport = opts.client.Transport
	default:
		transport = http.DefaultTransport
	}
	if opts.tracerProvider != nil {
		client.tracer = opts.tracerProvider.Tracer(tracerName)
		transport = otelhttp.NewTransport(transport, otelhttp.WithTracerProvider(opts.tracerProvider))
	}
	if opts.userAgent != "" {
		transport = userAgent{value: opts.userAgent, base: transport}
	}
	if opts.requestIDHeader != "" {
		transport = requestID{header: opts.requestIDHeader, base: transport}
	}
	if opts.throttle != nil {
		rt, err := throttle.NewRoundTripper(*opts.throttle, func() *slog.Logger { return client.logger }, transport)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		transport = rt
	}
	client.c.Transport = transport

	return client, nil
}

// Execute sends req and materializes the response body. It never returns
// nil: transport and body failures are reported in [Response.Err].
//
// A 2xx body is written to the file given by WithOutputFile, or kept in
// memory until it exceeds the memory limit and spills to a temporary file.
// A 304 body is drained and dropped. Any other body is kept in memory or
// spilled, never written to the output file. When the output file already
// exists, its modification time is sent as If-Modified-Since.
//
// The caller owns Response.Body and should call [Response.Delete] when done.
func (c *Client) Execute(req *http.Request, optFns ...ExecOption) *Response {
	var opts execOpts
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return &Response{Body: content.Empty(), Err: fmt.Errorf("applying exec option: %w", err)}
		}
	}

	ctx, span := c.tracer.Start(req.Context(), "httpcli.Execute",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	req = req.WithContext(ctx)
	res := c.execute(req, &opts)

	c.metrics.observeResponse(res)
	span.SetAttributes(
		attribute.Int("http.response.status_code", res.StatusCode),
		attribute.String("httpcli.body.backing", res.Body.Kind().String()),
		attribute.Int64("httpcli.body.size", res.Body.Size()),
	)

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		if opts.hooks.Fail != nil {
			opts.hooks.Fail(req, res)
		}
		return res
	}

	if opts.hooks.Done != nil {
		opts.hooks.Done(req, res)
	}

	return res
}

func (c *Client) execute(req *http.Request, opts *execOpts) *Response {
	res := &Response{Body: content.Empty()}

	freshness := opts.freshness
	if freshness == "" {
		freshness = opts.outFile
	}
	if freshness != "" {
		if fi, err := os.Stat(freshness); err == nil && fi.ModTime().Unix() > 0 {
			req = req.Clone(req.Context())
			req.Header.Set("If-Modified-Since", fi.ModTime().UTC().Format(http.TimeFormat))
		}
	}

	if opts.hooks.PreConnection != nil {
		opts.hooks.PreConnection(req)
	}

	resp, err := c.c.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("exec http do: %w", err)
		return res
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("failed to close response body", "error", err)
		}
	}()

	res.StatusCode = resp.StatusCode
	res.Status = resp.Status
	res.Header = resp.Header
	res.ContentLength = resp.ContentLength

	if opts.hooks.PostConnection != nil {
		opts.hooks.PostConnection(resp)
	}

	matOpts := []content.Option{
		content.WithMemoryLimit(c.memoryLimit),
		content.WithTempDir(c.spillDir),
		content.WithLogger(c.logger),
	}
	for _, w := range opts.tee {
		matOpts = append(matOpts, content.WithTee(w))
	}
	if opts.progress {
		matOpts = append(matOpts, content.WithProgress(resp.ContentLength))
	}

	var toFile bool
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		if opts.outFile != "" {
			toFile = true
			matOpts = append(matOpts, content.WithTargetFile(opts.outFile))
		}
	case resp.StatusCode == http.StatusNotModified:
		matOpts = append(matOpts, content.WithDiscard())
	}

	body, err := content.Materialize(req.Context(), resp.Body, matOpts...)
	if err != nil {
		res.Err = fmt.Errorf("reading response body: %w", err)
		return res
	}
	res.Body = body

	c.metrics.observeBody(body, !toFile && body.Kind() == content.File)

	return res
}

// Do will fire the request, and write response to the given dest object if any.
// The materialized body is deleted before Do returns.
func (c *Client) Do(req *http.Request, expCode int, opts ...DoOption) error {
	var settings doOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return err
		}
	}

	res := c.Execute(req)
	defer res.Delete()

	if res.Err != nil {
		return res.Err
	}

	if res.StatusCode != expCode {
		return unexpectedStatus(res)
	}

	if settings.responseBody != nil {
		rc, err := res.Body.Open()
		if err != nil {
			return fmt.Errorf("opening body: %w", err)
		}
		defer rc.Close()

		d := json.NewDecoder(rc)

		if settings.useJSONNum {
			d.UseNumber()
		}

		if err := d.Decode(settings.responseBody); err != nil {
			return fmt.Errorf("decoding body: %w", err)
		}
	}

	return nil
}

// Download executes a request that's intended to stream the response body to destPath.
// The body is written to a temp file in the same directory and renamed over
// destPath only once the status, length and checksum checks pass. On any
// failure the temp file is removed and an existing destPath is left as it was.
// A 304 Not Modified response leaves destPath untouched and counts as success.
func (c *Client) Download(req *http.Request, expCode int, destPath string, opts ...DownloadOption) error {
	if destPath == "" {
		return errors.New("destPath must not be empty")
	}

	var settings downloadOpts
	for _, opt := range opts {
		if err := opt(&settings); err != nil {
			return fmt.Errorf("applying download option: %w", err)
		}
	}

	if settings.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			c.logger.Info("skipping existing file", "path", destPath)
			return nil
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".httpcli-dl-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	var successful bool
	defer func() {
		if successful {
			return
		}
		if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Error("failed to remove temp file", "path", tmpPath, "error", err)
		}
	}()

	execOpts := []ExecOption{WithOutputFile(tmpPath), withFreshness(destPath)}
	if settings.checksum != nil {
		execOpts = append(execOpts, withTee(settings.checksum))
	}
	if settings.progress {
		execOpts = append(execOpts, withProgress())
	}

	res := c.Execute(req, execOpts...)
	if res.Err != nil {
		if errors.Is(res.Err, context.Canceled) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, res.Err)
		}

		return fmt.Errorf("download: %w", res.Err)
	}

	if res.StatusCode == http.StatusNotModified {
		c.logger.Info("destination is up to date", "path", destPath)
		return nil
	}

	if res.StatusCode != expCode {
		defer res.Delete()
		return unexpectedStatus(res)
	}

	if n := res.Body.Size(); res.ContentLength >= 0 && n != res.ContentLength {
		return &DownloadError{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", res.ContentLength, n),
		}
	}

	if err := settings.checksum.Verify(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	successful = true

	return nil
}

// unexpectedStatus builds an UnexpectedStatusError from at most
// maxErrBodySize bytes of the response body.
func unexpectedStatus(res *Response) error {
	body := "unable to read body"
	if rc, err := res.Body.Open(); err == nil {
		b, err := io.ReadAll(io.LimitReader(rc, maxErrBodySize))
		if err == nil {
			body = string(b)
		}
		rc.Close()
	}

	sErr := ErrUnexpectedStatusCode
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		sErr = errors.Join(ErrAuthFailure, ErrUnexpectedStatusCode)
	}

	return &UnexpectedStatusError{
		StatusCode: res.StatusCode,
		Body:       body,
		Err:        sErr,
	}
}

// Request instantiates an *http.Request with the provided information.
// It's just a convenience method that wraps the public Request func.
func (c *Client) Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	return Request(ctx, reqURL, method, opts...)
}

// URL creates a url.URL for use in Request.
// It's just a convenience method that wraps the public URL func.
func (c *Client) URL(scheme, host, path string, opts ...URLOption) *url.URL {
	return URL(scheme, host, path, opts...)
}

// Request instantiates an *http.Request with the provided information.
// Content-Type defaults to `application/json` if unspecified via WithContentType.
// The body is streamed from a [content.Content] with a fixed Content-Length;
// it is dropped for methods that don't carry one (GET, HEAD, DELETE, OPTIONS, TRACE).
func Request(ctx context.Context, reqURL *url.URL, method string, opts ...RequestOption) (*http.Request, error) {
	var settings requestOpts
	for _, opt := range opts {
		err := opt(&settings)
		if err != nil {
			return nil, err
		}
	}

	body := settings.body
	if settings.payload != nil {
		var payload bytes.Buffer
		if err := json.NewEncoder(&payload).Encode(settings.payload); err != nil {
			return nil, fmt.Errorf("encoding request payload: %w", err)
		}
		body = content.FromBytes(payload.Bytes())
	}
	if !carriesRequestBody(method) {
		body = nil
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if !body.IsEmpty() {
		req.Body = &lazyBody{open: body.Open}
		req.ContentLength = body.Size()
		req.GetBody = body.Open
	}

	for _, cookie := range settings.cookies {
		req.AddCookie(cookie)
	}

	var contentType string
	if settings.contentType == nil {
		contentType = "application/json"
	} else {
		contentType = *settings.contentType
	}

	req.Header.Set("Content-Type", contentType)
	for k, v := range settings.headers {
		for _, element := range v {
			req.Header.Add(k, element)
		}
	}

	return req, nil
}

// lazyBody opens its source on the first Read, so a request that is
// built but never sent holds no file descriptor.
type lazyBody struct {
	open func() (io.ReadCloser, error)
	rc   io.ReadCloser
}

func (b *lazyBody) Read(p []byte) (int, error) {
	if b.rc == nil {
		rc, err := b.open()
		if err != nil {
			return 0, fmt.Errorf("opening request body: %w", err)
		}
		b.rc = rc
	}

	return b.rc.Read(p)
}

func (b *lazyBody) Close() error {
	if b.rc == nil {
		return nil
	}

	return b.rc.Close()
}

// URL creates a url.URL for use in Request.
func URL(scheme, host, path string, opts ...URLOption) *url.URL {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	if settings.port != nil {
		host = fmt.Sprintf("%s:%d", host, *settings.port)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if settings.queryStrings != nil {
		queryParams := url.Values{}
		for k, v := range settings.queryStrings {
			queryParams.Add(k, v)
		}

		endpoint.RawQuery = queryParams.Encode()
	}

	return &endpoint
}
