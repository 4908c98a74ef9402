// Package generation calls the external text-generation service.
//
// Client.Invoke never returns an error or panics: every failure mode is folded
// into an Outcome carrying a typed Failure.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	DefaultEndpoint = "https://api.mentorpiece.org/v1/process-ai-request"
	DefaultTimeout  = 30 * time.Second
)

type Config struct {
	APIKey   string        `mapstructure:"api_key"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Request is built fresh for every call.
type Request struct {
	Model   string
	Prompt  string
	Timeout time.Duration
}

type requestBody struct {
	ModelName string `json:"model_name"`
	Prompt    string `json:"prompt"`
}

type responseBody struct {
	Response *string `json:"response"`
}

type Client struct {
	cfg  Config
	http *resty.Client
	log  *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetLogger(log.Sugar())

	return &Client{cfg: cfg, http: httpClient, log: log}
}

// HasCredential reports whether an API key is configured.
func (c *Client) HasCredential() bool {
	return c.cfg.APIKey != ""
}

// Invoke sends prompt to model and classifies the result.
// Without a credential no request is made.
func (c *Client) Invoke(ctx context.Context, model, prompt string) (out Outcome) {
	log := c.log.With(zap.String("model", model))

	if !c.HasCredential() {
		log.Error("generation service API key is not configured")
		return Failed(MissingCredential, 0)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("generation call panicked", zap.Any("panic", r))
			out = Failed(ConnectionFailure, 0)
		}
	}()

	req := Request{Model: model, Prompt: prompt, Timeout: c.cfg.Timeout}
	out = c.do(ctx, req)

	if f := out.Failure(); f != nil {
		log.Error("generation call failed",
			zap.Stringer("kind", f.Kind),
			zap.Int("status", f.StatusCode),
			zap.String("endpoint", c.cfg.Endpoint),
		)
		return out
	}

	log.Info("generation call succeeded", zap.Int("response_bytes", len(out.Text())))
	return out
}

func (c *Client) do(ctx context.Context, req Request) Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, req.Timeout)
	defer cancel()

	c.log.Debug("calling generation service", zap.String("model", req.Model), zap.Int("prompt_bytes", len(req.Prompt)))

	resp, err := c.http.R().
		SetContext(callCtx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(c.cfg.APIKey).
		SetBody(requestBody{ModelName: req.Model, Prompt: req.Prompt}).
		Post(c.cfg.Endpoint)
	if err != nil {
		if isTimeout(err) {
			return Failed(Timeout, 0)
		}
		return Failed(ConnectionFailure, 0)
	}

	if resp.StatusCode() != http.StatusOK {
		return Failed(HTTPStatus, resp.StatusCode())
	}

	var body responseBody
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return Failed(ResponseParseFailure, 0)
	}
	if body.Response == nil {
		return Succeeded("")
	}
	return Succeeded(*body.Response)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
