// Package appcore is the client core of the mobile application shell: an
// Api that issues requests against a configurable backend and classifies
// every outcome into a closed set of problem kinds.
//
// Images are cached by the cache subpackage; classification lives in the
// problem subpackage.
package appcore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/go-logr/logr"

	"github.com/infracollect/appcore/problem"
)

// Request describes a single API call. Path is resolved against the base
// URL in effect when the request starts.
type Request struct {
	Method        string
	Path          string
	Query         url.Values
	Body          []byte
	Authenticated bool
	ContentType   string
	Header        http.Header
}

// Api manages all requests to the backend.
type Api struct {
	config atomic.Pointer[Config]
	client *http.Client
	tokens TokenSource
	logger logr.Logger
	strict bool
}

// New creates a new Api with the given options.
// Without WithConfig, DefaultConfig is used.
func New(opts ...Option) (*Api, error) {
	a := &Api{
		client: http.DefaultClient,
		logger: logr.Discard(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.config.Load() == nil {
		cfg := DefaultConfig()
		if cfg.URL != "" {
			if err := validateBaseURL(cfg.URL); err != nil {
				return nil, err
			}
		}
		a.config.Store(&cfg)
	}

	return a, nil
}

// Config returns the configuration currently in effect.
func (a *Api) Config() Config {
	return *a.config.Load()
}

// SetBaseURL repoints every request started after the call. Requests already
// in flight keep the base URL they started with.
func (a *Api) SetBaseURL(baseURL string) error {
	if err := validateBaseURL(baseURL); err != nil {
		return err
	}
	for {
		old := a.config.Load()
		next := old.withURL(baseURL)
		if a.config.CompareAndSwap(old, &next) {
			a.logger.V(1).Info("base URL changed", "url", baseURL)
			return nil
		}
	}
}

// BuildHeaders merges, in order: extra, then an Authorization bearer header
// when authenticated and a token is available, then the Content-Type
// override when contentType is not empty. A missing credential is logged and
// the request goes out without Authorization.
func (a *Api) BuildHeaders(ctx context.Context, authenticated bool, contentType string, extra http.Header) http.Header {
	headers := make(http.Header)
	for k, vs := range extra {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}

	if authenticated {
		token, err := a.token(ctx)
		switch {
		case err != nil:
			a.logger.Error(err, "failed to get access token")
		case token == "":
			a.logger.Info("no credential available for authenticated request")
		default:
			headers.Set("Authorization", "Bearer "+token)
		}
	}

	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	return headers
}

func (a *Api) token(ctx context.Context) (string, error) {
	if a.tokens == nil {
		return "", nil
	}
	return a.tokens.Token(ctx)
}

// Do issues the request and returns its raw outcome. Transport failures are
// reported through the outcome's tag, never as an error.
func (a *Api) Do(ctx context.Context, req Request) problem.Outcome {
	cfg := a.config.Load()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	endpoint, err := resolveURL(cfg.URL, req.Path, req.Query)
	if err != nil {
		a.logger.Error(err, "failed to build request URL", "path", req.Path)
		return problem.Outcome{Tag: problem.TagUnknown}
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		a.logger.Error(err, "failed to create request", "method", method, "url", endpoint)
		return problem.Outcome{Tag: problem.TagUnknown}
	}

	contentType := req.ContentType
	if contentType == "" && req.Body != nil {
		contentType = "application/json"
	}
	httpReq.Header = a.BuildHeaders(ctx, req.Authenticated, contentType, req.Header)
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}

	a.logger.V(1).Info("sending request", "method", method, "url", endpoint)
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return problem.OutcomeForError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return problem.OutcomeForError(err)
	}

	return problem.OutcomeFor(resp.StatusCode, data)
}

// Interpret classifies an outcome. Non-ok results are logged unless
// hideErrorLog is set. The boolean is false when the request was cancelled;
// the caller should then do nothing.
func (a *Api) Interpret(o problem.Outcome, hideErrorLog bool) (problem.Result, bool) {
	classify := problem.Classify
	if a.strict {
		classify = problem.ClassifyStrict
	}

	res, ok := classify(o)
	if !ok {
		a.logger.V(1).Info("request cancelled")
		return res, false
	}
	if !res.OK() && !hideErrorLog {
		a.logger.Info("request failed, please try again",
			"kind", res.Kind, "temporary", res.Temporary, "status", o.Status)
	}
	return res, true
}

// Call issues the request and classifies its outcome.
func (a *Api) Call(ctx context.Context, req Request, hideErrorLog bool) (problem.Result, bool) {
	return a.Interpret(a.Do(ctx, req), hideErrorLog)
}

// resolveURL joins base and path. An absolute path URL is used as is.
func resolveURL(base, path string, query url.Values) (string, error) {
	var raw string
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		raw = path
	} else {
		if base == "" {
			return "", fmt.Errorf("no base URL configured for path %q", path)
		}
		raw = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
