package middleware

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/emlakhub/emlakhub-backend/api/responses"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

// Only the email field is read from anonymous bodies; larger bodies are
// rejected later by the decoder.
const maxSubjectPeek = 64 << 10

// RateLimitStore counts hits per scope in a fixed window.
type RateLimitStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy throttles one write surface, such as reports or the contact
// form, per client IP and per subject. The subject is the signed-in user, or
// the submitted email for anonymous callers.
type RateLimitPolicy struct {
	name         string
	window       time.Duration
	ipLimit      int64
	subjectLimit int64
}

func NewRateLimitPolicy(name string, window time.Duration, ipLimit, subjectLimit int) RateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "default"
	}
	return RateLimitPolicy{name: name, window: window, ipLimit: int64(ipLimit), subjectLimit: int64(subjectLimit)}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.subjectLimit > 0)
}

// counter is one bucket a request is charged against.
type counter struct {
	kind  string
	key   string
	limit int64
	// logged in place of the raw key
	label string
}

func (p RateLimitPolicy) counters(r *http.Request) ([]counter, error) {
	var out []counter
	if ip := clientIP(r); p.ipLimit > 0 && ip != "" {
		out = append(out, counter{kind: "ip", key: "ip:" + p.name + ":" + ip, limit: p.ipLimit, label: ip})
	}
	if p.subjectLimit > 0 {
		subject, err := rateLimitSubject(r)
		if err != nil {
			return nil, err
		}
		if subject != "" {
			hash := hashValue(subject)
			out = append(out, counter{kind: "subject", key: "subject:" + p.name + ":" + hash, limit: p.subjectLimit, label: hash})
		}
	}
	return out, nil
}

// RateLimit charges each request against the policy's counters and answers
// 429 with Retry-After once any of them is spent.
func RateLimit(policy RateLimitPolicy, store RateLimitStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			counters, err := policy.counters(r)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
				return
			}

			for _, c := range counters {
				allowed, hits, err := store.FixedWindowAllow(ctx, c.key, c.limit, policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(c.limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(max(c.limit-hits, 0), 10))
				if !allowed {
					rejectRateLimited(ctx, logg, w, policy, c, hits)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, c counter, hits int64) {
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         policy.name,
			"scope":          c.kind,
			"key":            c.label,
			"attempts":       hits,
			"limit":          c.limit,
			"window_seconds": int64(policy.window.Seconds()),
		}), "rate limit hit")
	}
	w.Header().Set("Retry-After", strconv.FormatInt(int64(policy.window.Seconds()), 10))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// rateLimitSubject restores the request body for the next handler.
func rateLimitSubject(r *http.Request) (string, error) {
	if userID := UserIDFromContext(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	if r.Body == nil || r.Body == http.NoBody {
		return "", nil
	}
	peek, err := io.ReadAll(io.LimitReader(r.Body, maxSubjectPeek))
	if err != nil {
		return "", err
	}
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(peek), r.Body), r.Body}

	var body struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(peek, &body) != nil {
		return "", nil
	}
	if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
		return "email:" + email, nil
	}
	return "", nil
}

// clientIP prefers the first X-Forwarded-For hop set by the load balancer.
func clientIP(r *http.Request) string {
	for hop := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func hashValue(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:16])
}
