package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aura-api/models"
	"aura-api/services"
	"aura-api/web3"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&services.ValidationError{Field: "stake", Reason: "must be positive"}, 400},
		{fmt.Errorf("wrapped: %w", web3.ErrInvalidAddress), 400},
		{services.ErrInsufficientBalance, 400},
		{services.ErrUnauthorized, 401},
		{services.ErrForbidden, 403},
		{services.ErrBanned, 403},
		{services.ErrNotFound, 404},
		{gorm.ErrRecordNotFound, 404},
		{services.ErrDuplicateTx, 409},
		{services.ErrAlreadyCompletedToday, 409},
		{fmt.Errorf("%w: cannot accept", services.ErrInvalidTransition), 409},
		{services.ErrConflict, 409},
		{fmt.Errorf("create wallet user: %w", gorm.ErrDuplicatedKey), 409},
		{&services.LessonFailedError{Score: 1, Total: 3}, 422},
		{services.ErrTxNotVerified, 422},
		{services.ErrProfanity, 422},
		{services.ErrRateLimited, 429},
		{services.ErrUnavailable, 503},
		{errors.New("connection reset"), 500},
	}
	for _, tt := range tests {
		got, msg := classify(tt.err)
		assert.Equal(t, tt.want, got, tt.err.Error())
		assert.NotEmpty(t, msg)
	}
}

func decode(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestRespondErrorBody(t *testing.T) {
	app := fiber.New()
	app.Get("/failed", func(c *fiber.Ctx) error {
		return respondError(c, &services.LessonFailedError{Score: 1, Total: 3})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return respondError(c, errors.New("pq: secret internals"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/failed", nil))
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
	body := decode(t, resp)
	assert.Equal(t, "lesson not passed", body["error"])
	assert.EqualValues(t, 1, body["score"])
	assert.EqualValues(t, 3, body["total"])

	resp, err = app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)
	body = decode(t, resp)
	assert.NotContains(t, body, "cause")
}

func TestParseBody(t *testing.T) {
	app := fiber.New()
	app.Post("/battles", func(c *fiber.Ctx) error {
		var in services.ChallengeInput
		if err := parseBody(c, &in); err != nil {
			return respondError(c, err)
		}
		return c.JSON(in)
	})

	post := func(body string) *http.Response {
		req := httptest.NewRequest("POST", "/battles", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := post(`{"opponent_id":"22222222-2222-2222-2222-222222222222","stake":5,"title":"rematch"}`)
	assert.Equal(t, 200, resp.StatusCode)

	resp = post(`{"opponent_id":"nope","stake":5,"title":"rematch"}`)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, decode(t, resp)["cause"], "opponentid")

	resp = post(`{"opponent_id":"22222222-2222-2222-2222-222222222222","stake":5,"title":"x","voting_hours":100}`)
	assert.Equal(t, 400, resp.StatusCode)

	resp = post(`{not json`)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestPaymentStatus(t *testing.T) {
	assert.Equal(t, fiber.StatusCreated, paymentStatus(models.PaymentStatusConfirmed))
	assert.Equal(t, fiber.StatusAccepted, paymentStatus(models.PaymentStatusPending))
}

func testApp() *fiber.App {
	s := &Services{
		Auth:          services.NewAuthService(nil, "test-secret"),
		Users:         services.NewUserService(nil, nil, nil, nil),
		Badges:        services.NewBadgeService(nil, nil),
		Leaderboard:   services.NewLeaderboardService(nil),
		Notifications: services.NewNotificationService(nil),
		Web3:          services.NewWeb3Service(nil, nil, 8453, "0x833589fcd6edb6e08f4c7c32d4f71b54bda02913", ""),
	}
	s.AdminToken = "admin-secret"
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app.Group("/api"), s)
	return app
}

func TestRoutesWithoutDatabase(t *testing.T) {
	app := testApp()

	tests := []struct {
		method, path string
		want         int
	}{
		{"GET", "/api/web3/config", 200},
		{"GET", "/api/web3/balance?address=0x1111111111111111111111111111111111111111", 503},
		{"GET", "/api/auth/twitter", 503},
		{"GET", "/api/auth/nonce?address=bogus", 400},
		{"GET", "/api/auth/nonce?address=0x1111111111111111111111111111111111111111", 200},
		{"GET", "/api/leaderboard?board=karma", 400},
		{"GET", "/api/leaderboard?limit=-1", 400},
		{"GET", "/api/lessons/today", 401},
		{"POST", "/api/battles", 401},
		{"GET", "/api/notifications/stream", 401},
		{"GET", "/api/admin/security-events", 401},
		{"GET", "/api/nowhere", 404},
		{"GET", "/api/users/not-a-uuid/badges", 400},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, "%s %s", tt.method, tt.path)
	}
}

func TestAdminBanRejectsMalformedID(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/admin/users/42/ban", nil)
	req.Header.Set("Authorization", "Bearer admin-secret")
	resp, err := testApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decode(t, resp)
	assert.Equal(t, "validation failed", body["error"])
}

func TestWeb3ConfigBody(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest("GET", "/api/web3/config", nil))
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, false, body["enabled"])
	assert.EqualValues(t, 8453, body["chain_id"])
	assert.EqualValues(t, 6, body["usdc_decimals"])
}

func TestNonceBody(t *testing.T) {
	resp, err := testApp().Test(httptest.NewRequest("GET", "/api/auth/nonce?address=0x1111111111111111111111111111111111111111", nil))
	require.NoError(t, err)
	body := decode(t, resp)
	nonce, _ := body["nonce"].(string)
	require.NotEmpty(t, nonce)
	assert.Equal(t, web3.LoginMessage(nonce), body["message"])
}
