package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
)

const oauthStateTTL = 10 * time.Minute

var twitterEndpoint = oauth2.Endpoint{
	AuthURL:   "https://twitter.com/i/oauth2/authorize",
	TokenURL:  "https://api.twitter.com/2/oauth2/token",
	AuthStyle: oauth2.AuthStyleInHeader,
}

// TwitterProfile is the subset of /2/users/me we keep.
type TwitterProfile struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profile_image_url"`
}

type pendingLogin struct {
	Verifier   string
	LinkUserID string
}

// TwitterClient runs the OAuth 2.0 PKCE flow against Twitter.
type TwitterClient struct {
	Config  *oauth2.Config
	APIBase string
	states  *cache.Cache
}

func NewTwitterClient(clientID, clientSecret, redirectURL string) *TwitterClient {
	return &TwitterClient{
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     twitterEndpoint,
			Scopes:       []string{"users.read", "tweet.read"},
		},
		APIBase: "https://api.twitter.com",
		states:  cache.New(oauthStateTTL, 2*oauthStateTTL),
	}
}

// AuthURL starts a login and returns the authorize URL to redirect to.
func (t *TwitterClient) AuthURL(linkUserID string) string {
	state := strings.ReplaceAll(uuid.NewString(), "-", "")
	verifier := oauth2.GenerateVerifier()
	t.states.Set(state, pendingLogin{Verifier: verifier, LinkUserID: linkUserID}, cache.DefaultExpiration)
	return t.Config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// Complete exchanges code for a token and fetches the profile. The state is
// single use.
func (t *TwitterClient) Complete(ctx context.Context, code, state string) (*TwitterProfile, string, error) {
	v, ok := t.states.Get(state)
	if !ok {
		return nil, "", fmt.Errorf("%w: unknown or expired oauth state", ErrUnauthorized)
	}
	t.states.Delete(state)
	pending := v.(pendingLogin)

	token, err := t.Config.Exchange(ctx, code, oauth2.VerifierOption(pending.Verifier))
	if err != nil {
		return nil, "", fmt.Errorf("%w: code exchange failed: %v", ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		t.APIBase+"/2/users/me?user.fields=profile_image_url", nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := t.Config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch twitter profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", fmt.Errorf("twitter returned status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Data TwitterProfile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", fmt.Errorf("decode twitter profile: %w", err)
	}
	if out.Data.ID == "" {
		return nil, "", fmt.Errorf("twitter profile missing id")
	}
	return &out.Data, pending.LinkUserID, nil
}
