package forge

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v69/github"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/oauth2"

	"pagesdeck/internal/logger"
	"pagesdeck/internal/session"
)

const userAgent = "pagesdeck"

// Transport issues authenticated calls against the REST API and maps
// unsuccessful responses to AuthFailure, NotFound or RemoteFailure. It does
// not retry or throttle: every call is sent.
type Transport struct {
	client  *github.Client
	session *session.Session
	log     logger.Log
}

// NewTransport builds a Transport rooted at apiURL. Every request carries the
// session's credential as a bearer token.
func NewTransport(apiURL string, sess *session.Session, logFactory logger.LogFactory) (*Transport, error) {
	base, err := url.Parse(apiURL)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "error parsing API URL %q", apiURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	httpClient := &http.Client{
		// No ReuseTokenSource: the session is consulted on every request so a
		// cleared credential is never sent.
		Transport: &oauth2.Transport{Source: sess, Base: http.DefaultTransport},
	}
	client := github.NewClient(httpClient)
	client.BaseURL = base
	client.UserAgent = userAgent
	return &Transport{
		client:  client,
		session: sess,
		log:     logFactory("Transport"),
	}, nil
}

// Call issues method against path (relative to the API root), JSON-encoding
// body when non-nil and decoding the response into out when non-nil.
func (t *Transport) Call(ctx context.Context, method, path string, body, out interface{}) error {
	path = strings.TrimPrefix(path, "/")
	if !t.session.HasCredential() {
		return &AuthFailure{Reason: "no credential"}
	}
	req, err := t.client.NewRequest(method, path, body)
	if err != nil {
		return pkgerrors.Wrapf(err, "error building request %s %s", method, path)
	}

	// go-github otherwise answers from its last seen rate-limit reset
	// without sending the request.
	ctx = context.WithValue(ctx, github.BypassRateLimitCheck, true)

	start := time.Now()
	resp, err := t.client.Do(ctx, req, out)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	t.log.WithFields(logger.Fields{
		"method":   method,
		"path":     req.URL.Path,
		"status":   status,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("api call")

	if err == nil {
		return nil
	}
	return classify(ctx, method, req.URL.Path, status, err)
}

func classify(ctx context.Context, method, path string, status int, err error) error {
	var (
		accepted   *github.AcceptedError
		rateLimit  *github.RateLimitError
		abuseLimit *github.AbuseRateLimitError
		errResp    *github.ErrorResponse
	)
	switch {
	case errors.As(err, &accepted):
		return nil
	case errors.Is(err, session.ErrNoCredential):
		return &AuthFailure{Reason: "no credential"}
	case errors.As(err, &rateLimit):
		return &RemoteFailure{Method: method, Path: path, Status: rateLimitStatus(rateLimit.Response, status), Reason: rateLimit.Message}
	case errors.As(err, &abuseLimit):
		return &RemoteFailure{Method: method, Path: path, Status: rateLimitStatus(abuseLimit.Response, status), Reason: abuseLimit.Message}
	case ctx.Err() != nil:
		return ctx.Err()
	}

	reason := http.StatusText(status)
	if errors.As(err, &errResp) && errResp.Message != "" {
		reason = errResp.Message
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthFailure{Status: status, Reason: reason}
	case status == http.StatusNotFound:
		return &NotFound{Path: path}
	case status == 0:
		return &RemoteFailure{Method: method, Path: path, Reason: err.Error()}
	default:
		return &RemoteFailure{Method: method, Path: path, Status: status, Reason: reason}
	}
}

func rateLimitStatus(resp *http.Response, fallback int) int {
	if resp != nil {
		return resp.StatusCode
	}
	return fallback
}
