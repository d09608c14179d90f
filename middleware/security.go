// middleware/security.go
package middleware

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"aura-api/metrics"
	"aura-api/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// MaxScanBytes caps how much of a body is inspected.
const MaxScanBytes = 1 << 20

// EventRecorder persists blocked requests.
type EventRecorder interface {
	Record(ctx context.Context, ev *models.SecurityEvent) error
}

type scanRule struct {
	Name string
	Re   *regexp.Regexp
}

var scanRules = []scanRule{
	{"sqli_union_select", regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`)},
	{"sqli_tautology", regexp.MustCompile(`(?i)['"]?\s*\bor\b\s+['"]?(\d+)['"]?\s*=\s*['"]?(\d+)\b`)},
	{"sqli_drop", regexp.MustCompile(`(?i);\s*(drop|truncate|alter)\s+table\b`)},
	{"sqli_stacked", regexp.MustCompile(`(?i);\s*(delete\s+from|insert\s+into|update\s+\w+\s+set)\b`)},
	{"sqli_comment", regexp.MustCompile(`'\s*(--|/\*)`)},
	{"sqli_timing", regexp.MustCompile(`(?i)\b(sleep|benchmark|pg_sleep)\s*\(`)},
	{"sqli_schema", regexp.MustCompile(`(?i)\binformation_schema\b|\bpg_catalog\b`)},
	{"xss_script", regexp.MustCompile(`(?i)<\s*script\b`)},
	{"xss_js_uri", regexp.MustCompile(`(?i)\bjavascript\s*:`)},
	{"xss_handler", regexp.MustCompile(`(?i)\bon(error|load|click|mouseover|focus|toggle)\s*=`)},
	{"xss_embed", regexp.MustCompile(`(?i)<\s*(iframe|object|embed)\b`)},
	{"xss_cookie", regexp.MustCompile(`(?i)document\s*\.\s*cookie`)},
}

// jsonUnescaper reverses the escapes JSON encoders apply to < > &.
var jsonUnescaper = strings.NewReplacer(`\u003c`, "<", `\u003e`, ">", `\u0026`, "&", `\u003C`, "<", `\u003E`, ">")

// MatchRule returns the first rule payload matches, or "".
func MatchRule(payload string) (string, string) {
	for _, r := range scanRules {
		if loc := r.Re.FindStringIndex(payload); loc != nil {
			return r.Name, excerpt(payload, loc[0], loc[1])
		}
	}
	return "", ""
}

func excerpt(s string, start, end int) string {
	from := start - 40
	if from < 0 {
		from = 0
	}
	to := end + 40
	if to > len(s) {
		to = len(s)
	}
	for from > 0 && !utf8.RuneStart(s[from]) {
		from--
	}
	for to < len(s) && !utf8.RuneStart(s[to]) {
		to++
	}
	// Excerpt lands in a text column
	return strings.ToValidUTF8(s[from:to], "\uFFFD")
}

// SecurityScanner blocks requests whose query or body look like SQL
// injection or XSS, logging a SecurityEvent for each.
func SecurityScanner(recorder EventRecorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var payloads []string

		if qs := string(c.Request().URI().QueryString()); qs != "" {
			if decoded, err := url.QueryUnescape(qs); err == nil {
				qs = decoded
			}
			payloads = append(payloads, qs)
		}

		ct := strings.ToLower(c.Get(fiber.HeaderContentType))
		if !strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
			body := c.Body()
			if len(body) > MaxScanBytes {
				body = body[:MaxScanBytes]
			}
			if len(bytes.TrimSpace(body)) > 0 {
				text := jsonUnescaper.Replace(string(body))
				if strings.HasPrefix(ct, fiber.MIMEApplicationForm) {
					if decoded, err := url.QueryUnescape(text); err == nil {
						text = decoded
					}
				}
				payloads = append(payloads, text)
			}
		}

		for _, p := range payloads {
			rule, snippet := MatchRule(p)
			if rule == "" {
				continue
			}
			metrics.SecurityBlocks.WithLabelValues(rule).Inc()
			ev := &models.SecurityEvent{
				ID:        uuid.NewString(),
				IP:        c.IP(),
				Method:    c.Method(),
				Path:      c.Path(),
				Rule:      rule,
				Excerpt:   snippet,
				UserID:    CurrentUserID(c),
				UserAgent: c.Get(fiber.HeaderUserAgent),
			}
			log.WithFields(log.Fields{"ip": ev.IP, "path": ev.Path, "rule": rule}).
				Println("🛡️ [SECURITY] Request blocked")
			if recorder != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				if err := recorder.Record(ctx, ev); err != nil {
					log.Printf("❌ [SECURITY] Failed to store event: %v", err)
				}
				cancel()
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "request blocked by security policy"})
		}
		return c.Next()
	}
}

// RateLimit caps requests per client IP per minute.
func RateLimit(perMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			metrics.SecurityBlocks.WithLabelValues("rate_limit").Inc()
			log.Printf("🚦 [SECURITY] Rate limit hit by %s on %s", c.IP(), c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	})
}
