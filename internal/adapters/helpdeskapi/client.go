// Package helpdeskapi implements ports.AuthAPI over the helpdesk backend's REST API.
package helpdeskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"
	domainauth "github.com/target/helpdesk-console/internal/domain/auth"
	apperrors "github.com/target/helpdesk-console/internal/errors"
	"github.com/target/helpdesk-console/internal/ports"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
)

const (
	// DefaultTimeout bounds a single backend request.
	DefaultTimeout = 15 * time.Second
	// DefaultErrorMessagePath selects the message field of the backend's error body.
	DefaultErrorMessagePath = "message"

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

// Refresher renews the session's access token. It is satisfied by the session store.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) (string, bool)
}

// ClientOptions configures Client.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration

	// ErrorMessagePath is a JMESPath expression evaluated against JSON error bodies.
	ErrorMessagePath string

	// Tokens supplies the bearer token for authenticated calls.
	Tokens oauth2.TokenSource

	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Logger *slog.Logger
}

// Client is the backend authentication client.
type Client struct {
	baseURL   *url.URL
	errorPath string
	plain     *http.Client
	authed    *http.Client
	logger    *slog.Logger

	mu        sync.RWMutex
	refresher Refresher
}

var _ ports.AuthAPI = (*Client)(nil)

var (
	errMissingBaseURL = errors.New("helpdesk api base url is required")
	errMissingTokens  = errors.New("helpdesk api token source is required")
)

// NewClient builds a Client. The refresher used for 401 retries is bound later with
// SetRefresher, because the session store itself depends on this client.
func NewClient(opts ClientOptions) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errMissingBaseURL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse helpdesk api url: %w", err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("helpdesk api url must be absolute http(s): %q", raw)
	}
	if opts.Tokens == nil {
		return nil, errMissingTokens
	}

	errorPath := strings.TrimSpace(opts.ErrorMessagePath)
	if errorPath == "" {
		errorPath = DefaultErrorMessagePath
	}
	if _, err := jmespath.Compile(errorPath); err != nil {
		return nil, fmt.Errorf("compile error message path %q: %w", errorPath, err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		baseURL:   base,
		errorPath: errorPath,
		plain:     &http.Client{Transport: transport, Jar: jar, Timeout: timeout},
		authed: &http.Client{
			Transport: &oauth2.Transport{Source: opts.Tokens, Base: transport},
			Jar:       jar,
			Timeout:   timeout,
		},
		logger: opts.Logger,
	}, nil
}

func (c *Client) log() *slog.Logger {
	if c != nil && c.logger != nil {
		return c.logger
	}
	return slog.Default()
}

// SetRefresher binds the hook used to renew the access token after a 401.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	c.refresher = r
	c.mu.Unlock()
}

func (c *Client) currentRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// Login posts credentials to /auth/login.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.send(ctx, call{
		endpoint: apperrors.EndpointLogin,
		method:   http.MethodPost,
		path:     "auth/login",
		body:     creds,
		out:      &out,
	})
	return out, err
}

// Logout posts to /auth/logout with the current bearer token.
func (c *Client) Logout(ctx context.Context) error {
	return c.send(ctx, call{
		endpoint: apperrors.EndpointLogout,
		method:   http.MethodPost,
		path:     "auth/logout",
		auth:     true,
	})
}

// Refresh exchanges a refresh token at /auth/refresh.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (domainauth.AuthResponse, error) {
	var out domainauth.AuthResponse
	err := c.send(ctx, call{
		endpoint: apperrors.EndpointRefresh,
		method:   http.MethodPost,
		path:     "auth/refresh",
		body:     map[string]string{"refreshToken": refreshToken},
		out:      &out,
	})
	return out, err
}

// Me fetches the current user from /auth/me. A 401 triggers one token refresh and retry.
func (c *Client) Me(ctx context.Context) (domainauth.User, error) {
	var out domainauth.User
	err := c.send(ctx, call{
		endpoint:     apperrors.EndpointProfile,
		method:       http.MethodGet,
		path:         "auth/me",
		out:          &out,
		auth:         true,
		retryOn401:   true,
		requireReply: true,
	})
	return out, err
}

type call struct {
	endpoint     apperrors.Endpoint
	method       string
	path         string
	body         any
	out          any
	auth         bool
	retryOn401   bool
	requireReply bool
}

type reply struct {
	status int
	body   []byte
}

func (c *Client) send(ctx context.Context, cl call) error {
	rep, err := c.roundTrip(ctx, cl)
	if err != nil {
		return err
	}

	if rep.status == http.StatusUnauthorized && cl.retryOn401 {
		if r := c.currentRefresher(); r != nil {
			if _, ok := r.RefreshAccessToken(ctx); ok {
				c.log().DebugContext(ctx, "retrying after token refresh", "path", cl.path)
				if rep, err = c.roundTrip(ctx, cl); err != nil {
					return err
				}
			}
		}
	}

	if rep.status < 200 || rep.status >= 300 {
		return apperrors.MapStatus(cl.endpoint, rep.status, c.errorMessage(rep.body))
	}
	if cl.out == nil {
		return nil
	}
	if len(bytes.TrimSpace(rep.body)) == 0 {
		if cl.requireReply {
			return apperrors.Internal("The helpdesk server returned an empty response.")
		}
		return nil
	}
	if err := json.Unmarshal(rep.body, cl.out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "The helpdesk server returned an unreadable response.")
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, cl call) (reply, error) {
	var payload io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return reply{}, fmt.Errorf("encode %s body: %w", cl.path, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL.JoinPath(cl.path).String(), payload)
	if err != nil {
		return reply{}, fmt.Errorf("create %s request: %w", cl.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	hc := c.plain
	if cl.auth {
		hc = c.authed
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log().DebugContext(ctx, "helpdesk api request failed",
			"method", cl.method,
			"path", cl.path,
			"request_id", requestID,
			"error", err)
		return reply{}, apperrors.MapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, apperrors.MapTransportError(fmt.Errorf("read %s response: %w", cl.path, err))
	}

	c.log().DebugContext(ctx, "helpdesk api request",
		"method", cl.method,
		"path", cl.path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))
	return reply{status: resp.StatusCode, body: body}, nil
}

// errorMessage extracts a human-readable message from an error body. A list of
// messages is joined with "; ". Non-JSON bodies yield "".
func (c *Client) errorMessage(body []byte) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return ""
	}
	v, err := jmespath.Search(c.errorPath, doc)
	if err != nil {
		return ""
	}

	switch m := v.(type) {
	case string:
		return strings.TrimSpace(m)
	case []any:
		parts := make([]string, 0, len(m))
		for _, item := range m {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}
