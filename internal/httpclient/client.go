// Package httpclient provides an instrumented HTTP client with OTEL tracing and metrics.
package httpclient

import (
	"context"
	"net"
	"net/http"
	"net/http/httptrace"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultDialKeepAlive   = 10 * time.Second
	defaultRequestTimeout  = 10 * time.Second
	defaultMaxConnsPerHost = 5
	defaultIdleConnTimeout = 2 * time.Minute

	metricRequestCounter = "swapdesk_http_client_requests_total"
)

// Client builds instrumented requests against one upstream.
type Client interface {
	NewRequest() Request
}

// Option configures a Client.
type Option func(*options)

type options struct {
	providerName   string
	baseURL        string
	headers        map[string]string
	requestTimeout time.Duration
	roundTripper   http.RoundTripper
	errorHandler   ResponseErrorHandler
}

// ResponseErrorHandler turns a completed response into an error, or nil.
type ResponseErrorHandler func(statusCode int, body []byte) error

// WithProviderName labels metrics and spans.
func WithProviderName(name string) Option {
	return func(o *options) { o.providerName = name }
}

// WithBaseURL prefixes relative request paths.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { o.headers = headers }
}

// WithRequestTimeout overrides the 10s default.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithRoundTripper replaces the pooled transport, mainly for tests.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.roundTripper = rt }
}

// WithResponseErrorHandler applies to every request from this client.
func WithResponseErrorHandler(h ResponseErrorHandler) Option {
	return func(o *options) { o.errorHandler = h }
}

// InstrumentedClient wraps http.Client with OTEL instrumentation.
type InstrumentedClient struct {
	client         *http.Client
	requestCounter metric.Int64Counter
	tracer         trace.Tracer
	opts           options
}

// New creates an instrumented client.
func New(opts ...Option) (*InstrumentedClient, error) {
	o := options{providerName: "default", requestTimeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.roundTripper
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost: defaultMaxConnsPerHost,
			IdleConnTimeout: defaultIdleConnTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: o.requestTimeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	meter := otel.GetMeterProvider().Meter(
		"github.com/fd1az/swapdesk/internal/httpclient",
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)),
	)
	requestCounter, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Outbound HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedClient{
		client:         httpClient,
		requestCounter: requestCounter,
		tracer:         otel.GetTracerProvider().Tracer("github.com/fd1az/swapdesk/internal/httpclient"),
		opts:           o,
	}, nil
}

// NewRequest starts a request builder carrying the client defaults.
func (c *InstrumentedClient) NewRequest() Request {
	headers := make(map[string]string, len(c.opts.headers))
	for k, v := range c.opts.headers {
		headers[k] = v
	}
	return &requestBuilder{
		c:       c,
		headers: headers,
	}
}
