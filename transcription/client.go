package transcription

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/httpclient"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/observability"
	"github.com/kbukum/audiopen/resilience"
)

// Request is the body of one transcription call.
type Request struct {
	AudioURL    string `json:"audioUrl"`
	Prompt      string `json:"prompt"`
	RecordingID string `json:"recordingId,omitempty"`
}

// Reply is a successful transcription.
type Reply struct {
	Text      string
	Timestamp time.Time
}

// RPC performs one transcription call. Errors are *errors.AppError with
// the codes TRANSCRIPTION_OVERLOADED, RATE_LIMITED, URL_EXPIRED or
// TRANSCRIPTION_FAILED.
type RPC interface {
	Transcribe(ctx context.Context, req Request) (Reply, error)
}

// envelope covers both the success and the error bodies.
type envelope struct {
	Transcription string   `json:"transcription"`
	Timestamp     string   `json:"timestamp"`
	Error         string   `json:"error"`
	RetryAfter    *float64 `json:"retryAfter"`
}

// Client calls the hosted transcription function.
type Client struct {
	http  *httpclient.Client
	cfg   Config
	token func() string
	log   *logger.Logger
}

// NewClient creates a client. token supplies the signed-in user's access
// token for every call.
func NewClient(cfg Config, token func() string, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	log = log.WithComponent("transcription.rpc")

	breaker := httpclient.DefaultCircuitBreakerConfig("transcription")
	breaker.MaxFailures = cfg.CircuitMaxFailures
	breaker.Timeout = cfg.openTimeout()
	breaker.OnStateChange = func(name string, from, to resilience.State) {
		log.Warn("circuit breaker changed state", logger.Fields("breaker", name, "from", from.String(), "to", to.String()))
	}

	client, err := httpclient.New(httpclient.Config{
		BaseURL:        strings.TrimRight(cfg.FunctionsURL, "/"),
		Timeout:        cfg.timeout(),
		CircuitBreaker: breaker,
		TLS:            &cfg.TLS,
	})
	if err != nil {
		return nil, err
	}
	return &Client{http: client, cfg: cfg, token: token, log: log}, nil
}

// CircuitState reports the breaker guarding the function.
func (c *Client) CircuitState() resilience.State {
	return c.http.CircuitState()
}

// Transcribe posts req and classifies the response.
func (c *Client) Transcribe(ctx context.Context, req Request) (_ Reply, err error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanTranscriptionRPC)
	defer func() { observability.EndSpan(span, err) }()

	token := ""
	if c.token != nil {
		token = c.token()
	}
	if token == "" {
		return Reply{}, apperrors.Unauthorized("sign in to transcribe recordings")
	}

	resp, err := httpclient.Post[envelope](c.http, ctx, "/"+c.cfg.Function, req,
		httpclient.WithRequestAuth(httpclient.BearerAuth(token)))
	if err != nil {
		var body envelope
		if resp != nil {
			body = resp.Data
		}
		observability.SetSpanAttribute(ctx, observability.AttrStatusCode, httpclient.StatusCode(err))
		return Reply{}, c.classify(err, body)
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatusCode, resp.StatusCode)

	reply := Reply{Text: resp.Data.Transcription}
	if ts, perr := time.Parse(time.RFC3339Nano, resp.Data.Timestamp); perr == nil {
		reply.Timestamp = ts
	}
	return reply, nil
}

func (c *Client) classify(err error, body envelope) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return apperrors.Overloaded("The transcription service is failing; calls are paused for a moment.", c.cfg.openTimeout()).WithCause(err)
	}

	status := httpclient.StatusCode(err)
	switch status {
	case 0:
		return httpclient.ToAppError(err, "transcription")
	case http.StatusServiceUnavailable:
		return apperrors.Overloaded(body.Error, c.retryAfter(err, body)).WithCause(err)
	case http.StatusTooManyRequests:
		appErr := apperrors.RateLimited().WithCause(err)
		if body.Error != "" {
			appErr.Message = body.Error
		}
		return appErr
	case http.StatusForbidden:
		return apperrors.URLExpired(body.Error).WithCause(err)
	default:
		return apperrors.TranscriptionFailed(status, body.Error).WithCause(err)
	}
}

// retryAfter prefers the body's hint, then the Retry-After header, then
// the configured default.
func (c *Client) retryAfter(err error, body envelope) time.Duration {
	if body.RetryAfter != nil && *body.RetryAfter > 0 {
		return time.Duration(math.Ceil(*body.RetryAfter)) * time.Second
	}
	var httpErr *httpclient.Error
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}
	return c.cfg.retryAfter()
}
