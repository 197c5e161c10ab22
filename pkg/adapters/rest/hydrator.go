package rest

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
	"strings"
	"text/template"
	"time"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
)

// maxErrorBody bounds how much of a failed response is read into the error message.
const maxErrorBody = 4 << 10

// Config describes one REST call. URL and Body are text/templates rendered with
// the dependency data available as .Deps (in declaration order).
//
// Values are inserted into the URL verbatim. Pipe them through pathescape (path
// segments) or urlquery (query values) so that "/", "?" or "#" in the data
// cannot change the request target.
type Config struct {
	URL     string            `mapstructure:"url" validate:"required"`
	Method  string            `mapstructure:"method" validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Headers map[string]string `mapstructure:"headers"`
	Body    string            `mapstructure:"body"`
	Timeout time.Duration     `mapstructure:"timeout"`
}

type hydrator struct {
	cfg    Config
	url    *template.Template
	body   *template.Template
	client *http.Client
	logger *slog.Logger
}

// Option configures the hydrator.
type Option func(*hydrator)

// WithHTTPClient sets the client used for requests (default http.DefaultClient).
func WithHTTPClient(c *http.Client) Option {
	return func(h *hydrator) {
		if c != nil {
			h.client = c
		}
	}
}

// WithLogger configures a logger for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(h *hydrator) {
		if logger != nil {
			h.logger = logger
		}
	}
}

var funcs = template.FuncMap{
	"pathescape": func(v any) string {
		return url.PathEscape(fmt.Sprint(v))
	},
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// New compiles cfg into a layout.Hydrator.
func New(cfg Config, opts ...Option) (layout.Hydrator, error) {
	if cfg.URL == "" {
		return nil, errors.New("rest: url is required")
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	cfg.Method = strings.ToUpper(cfg.Method)

	h := &hydrator{
		cfg:    cfg,
		client: http.DefaultClient,
		logger: logging.NewNop(),
	}
	var err error
	if h.url, err = template.New("url").Funcs(funcs).Option("missingkey=error").Parse(cfg.URL); err != nil {
		return nil, fmt.Errorf("rest: invalid url template: %w", err)
	}
	if cfg.Body != "" {
		if h.body, err = template.New("body").Funcs(funcs).Option("missingkey=error").Parse(cfg.Body); err != nil {
			return nil, fmt.Errorf("rest: invalid body template: %w", err)
		}
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.hydrate, nil
}

type templateData struct {
	Deps []any
}

func (h *hydrator) hydrate(ctx context.Context, deps ...any) (any, error) {
	data := templateData{Deps: deps}

	var target bytes.Buffer
	if err := h.url.Execute(&target, data); err != nil {
		return nil, fmt.Errorf("rest: render url: %w", err)
	}

	var body io.Reader
	if h.body != nil {
		var buf bytes.Buffer
		if err := h.body.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("rest: render body: %w", err)
		}
		body = &buf
	}

	if h.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, h.cfg.Method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("rest: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.cfg.Headers {
		req.Header.Set(k, v)
	}

	started := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, domain.NewError(http.StatusBadGateway, err.Error(), err)
	}
	defer resp.Body.Close()
	h.logger.Debug("rest call", "method", req.Method, "url", req.URL.Redacted(), "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, responseError(resp)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var out any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("rest: decode response: %w", err)
	}
	return out, nil
}

// responseError turns a non-2xx response into a domain.Error, preferring a JSON
// "message" (or "error") field of the body over the raw text.
func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(raw))

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return domain.NewError(resp.StatusCode, msg, nil)
}
