package sensorclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/fieldwatch/internal/config"
	obscontext "github.com/smallbiznis/fieldwatch/internal/observability/context"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	obstracing "github.com/smallbiznis/fieldwatch/internal/observability/tracing"
	"github.com/smallbiznis/fieldwatch/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const upstreamName = "sensor-service"

var ErrServiceUnavailable = errors.New("sensor_service_unavailable")

// Request describes one call to the sensor service.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded when non-nil.
	Body any
}

// Response is the upstream reply, relayed unchanged.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

type Params struct {
	fx.In

	Config  config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

func New(p Params) *Client {
	timeout := p.Config.SensorServiceTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(p.Config.SensorServiceURL, "/"),
		timeout: timeout,
		http:    &http.Client{},
		log:     p.Log.Named("sensorclient"),
		metrics: p.Metrics,
	}
}

// Do performs req with the configured timeout. Transport failures map to
// ErrServiceUnavailable; any HTTP status is returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode sensor request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build sensor request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-Id", requestID)
	}
	correlation.Inject(ctx, httpReq.Header)
	obstracing.InjectHeaders(ctx, httpReq.Header)

	started := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.metrics.RecordProxyRequest(ctx, upstreamName, 0)
		c.log.Warn("sensor service unavailable",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(obstracing.SafeError(err)),
		)
		return nil, ErrServiceUnavailable
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordProxyRequest(ctx, upstreamName, 0)
		return nil, ErrServiceUnavailable
	}

	c.metrics.RecordProxyRequest(ctx, upstreamName, resp.StatusCode)
	if resp.StatusCode >= http.StatusInternalServerError {
		c.log.Warn("sensor service error",
			zap.String("method", method),
			zap.String("path", req.Path),
			zap.Int("status", resp.StatusCode),
		)
	}

	return &Response{
		Status: resp.StatusCode,
		Body:   payload,
		Header: resp.Header.Clone(),
	}, nil
}
