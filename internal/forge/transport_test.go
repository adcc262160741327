package forge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pagesdeck/internal/logger"
	"pagesdeck/internal/session"
	"pagesdeck/internal/testutil/fakegh"
)

func TestTransportStatusMapping(t *testing.T) {
	srv := fakegh.New(t)
	srv.Fail(http.MethodGet, "/forbidden", http.StatusForbidden)
	srv.Fail(http.MethodGet, "/broken", http.StatusBadGateway)
	sess := session.New(fakegh.Token)
	tr, err := NewTransport(srv.APIURL(), sess, logger.NoOpLogFactory)
	require.NoError(t, err)
	ctx := context.Background()

	err = tr.Call(ctx, http.MethodGet, "forbidden", nil, nil)
	var auth *AuthFailure
	require.True(t, errors.As(err, &auth))
	require.Equal(t, http.StatusForbidden, auth.Status)

	err = tr.Call(ctx, http.MethodGet, "missing", nil, nil)
	require.True(t, IsNotFound(err))

	err = tr.Call(ctx, http.MethodGet, "broken", nil, nil)
	var remote *RemoteFailure
	require.True(t, errors.As(err, &remote))
	require.Equal(t, http.StatusBadGateway, remote.Status)
	require.Equal(t, "Bad Gateway", remote.Reason)
	require.Equal(t, "GET /broken: 502 Bad Gateway", remote.Error())
}

func TestTransportRejectedCredential(t *testing.T) {
	srv := fakegh.New(t)
	tr, err := NewTransport(srv.APIURL(), session.New("wrong"), logger.NoOpLogFactory)
	require.NoError(t, err)

	err = tr.Call(context.Background(), http.MethodGet, "user", nil, nil)
	var auth *AuthFailure
	require.True(t, errors.As(err, &auth))
	require.Equal(t, http.StatusUnauthorized, auth.Status)
	require.Equal(t, "Bad credentials", auth.Reason)
}

func TestTransportWithoutCredentialMakesNoRequest(t *testing.T) {
	srv := fakegh.New(t)
	sess := session.New(fakegh.Token)
	tr, err := NewTransport(srv.APIURL(), sess, logger.NoOpLogFactory)
	require.NoError(t, err)

	sess.Clear()
	err = tr.Call(context.Background(), http.MethodGet, "user", nil, nil)
	require.True(t, IsAuthFailure(err))
	require.Empty(t, srv.Requests())
}

func TestTransportAcceptedIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()
	tr, err := NewTransport(srv.URL, session.New("t"), logger.NoOpLogFactory)
	require.NoError(t, err)

	require.NoError(t, tr.Call(context.Background(), http.MethodPost, "repos/o/r/pages", map[string]string{"build_type": "workflow"}, nil))
}

func TestTransportRateLimitIsRemoteFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("X-RateLimit-Limit", "60")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"API rate limit exceeded"}`))
	}))
	defer srv.Close()
	tr, err := NewTransport(srv.URL, session.New("t"), logger.NoOpLogFactory)
	require.NoError(t, err)

	err = tr.Call(context.Background(), http.MethodGet, "user", nil, nil)
	var remote *RemoteFailure
	require.True(t, errors.As(err, &remote))
	require.Equal(t, http.StatusForbidden, remote.Status)
	require.False(t, IsAuthFailure(err))

	// A remembered reset time must not stop the next call reaching the server.
	err = tr.Call(context.Background(), http.MethodGet, "user", nil, nil)
	require.True(t, errors.As(err, &remote))
	require.Equal(t, http.StatusForbidden, remote.Status)
	require.Equal(t, int32(2), hits.Load())
}

func TestTransportNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	tr, err := NewTransport(url, session.New("t"), logger.NoOpLogFactory)
	require.NoError(t, err)

	err = tr.Call(context.Background(), http.MethodGet, "user", nil, nil)
	var remote *RemoteFailure
	require.True(t, errors.As(err, &remote))
	require.Equal(t, 0, remote.Status)
}
