package biometric

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, false)
}

func TestVerify_ForwardsTokenUnchanged(t *testing.T) {
	var got map[string]string
	c := verifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/verify", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(VerifyResult{UserID: got["user_id"], Verified: true, Similarity: 0.9})
	})

	ok, err := c.Verify(context.Background(), "  opaque:token==  ", "student-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "student-1", got["user_id"])
	assert.Equal(t, "  opaque:token==  ", got["token"])
}

func TestVerify_Rejected(t *testing.T) {
	c := verifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(VerifyResult{Verified: false})
	})

	ok, err := c.Verify(context.Background(), "tok", "student-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_ServiceErrorIsNotARejection(t *testing.T) {
	c := verifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	ok, err := c.Verify(context.Background(), "tok", "student-1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "502")
}

func TestSkip(t *testing.T) {
	c := New("http://127.0.0.1:1", true)
	ok, err := c.Verify(context.Background(), "anything", "s")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, c.Health(context.Background()))
}

func TestHealth(t *testing.T) {
	healthy := verifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, healthy.Health(context.Background()))

	down := verifyServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.Error(t, down.Health(context.Background()))
}
