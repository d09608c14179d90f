package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwitterPKCEFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oauth2/token":
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "the-code", r.PostForm.Get("code"))
			assert.NotEmpty(t, r.PostForm.Get("code_verifier"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"access_token": "at-1",
				"token_type":   "bearer",
				"expires_in":   7200,
			})
		case "/2/users/me":
			assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": map[string]string{"id": "998877", "name": "Ada", "username": "ada_onchain"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tc := NewTwitterClient("client-id", "client-secret", "http://localhost/callback")
	tc.Config.Endpoint.TokenURL = srv.URL + "/oauth2/token"
	tc.APIBase = srv.URL

	authURL, err := url.Parse(tc.AuthURL("link-me"))
	require.NoError(t, err)
	q := authURL.Query()
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	state := q.Get("state")
	require.NotEmpty(t, state)

	profile, linkUserID, err := tc.Complete(context.Background(), "the-code", state)
	require.NoError(t, err)
	assert.Equal(t, "998877", profile.ID)
	assert.Equal(t, "ada_onchain", profile.Username)
	assert.Equal(t, "link-me", linkUserID)

	// state is single use
	_, _, err = tc.Complete(context.Background(), "the-code", state)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTwitterUnknownState(t *testing.T) {
	tc := NewTwitterClient("id", "secret", "http://localhost/callback")
	_, _, err := tc.Complete(context.Background(), "code", "forged")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
