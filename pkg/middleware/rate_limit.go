package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"medslot/internal/ratelimit"
	apperrors "medslot/pkg/errors"
	httputil "medslot/pkg/http"
	"medslot/pkg/logger"
)

const (
	HeaderRateLimitLimit     = "X-RateLimit-Limit"
	HeaderRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter         = "Retry-After"
)

// IdentifierFunc picks the subject a request is counted against.
type IdentifierFunc func(r *http.Request) string

// RateLimit counts each request against cfg and answers 429 once the window
// is exhausted. Every response carries the X-RateLimit-* headers.
func RateLimit(limiter *ratelimit.Limiter, cfg ratelimit.Config, identify IdentifierFunc, log *logger.Logger) Middleware {
	if identify == nil {
		identify = DefaultIdentifier
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := identify(r)
			result := limiter.Check(r.Context(), identifier, cfg)

			w.Header().Set(HeaderRateLimitLimit, strconv.FormatInt(result.Limit, 10))
			w.Header().Set(HeaderRateLimitRemaining, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(HeaderRateLimitReset, strconv.FormatInt(result.ResetInSeconds, 10))

			if !result.Allowed {
				log.Warn("Request rate limited",
					"request_id", logger.RequestIDFromContext(r.Context()),
					"identifier", identifier,
					"profile", cfg.Prefix,
					"path", r.URL.Path,
				)
				w.Header().Set(HeaderRetryAfter, strconv.FormatInt(result.ResetInSeconds, 10))
				_ = httputil.WriteError(w, apperrors.RateLimited(result.ResetInSeconds))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type userIDKey struct{}

// ContextWithUserID records the caller once an authentication layer has
// verified it. Rate limiting never reads identity from request headers.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// ClientIPResolver derives the client address. X-Forwarded-For is honoured
// only when the direct peer is a trusted proxy, and then read right to left
// up to the first address that is not itself a trusted proxy.
type ClientIPResolver struct {
	trusted []*net.IPNet
}

// NewClientIPResolver accepts CIDR blocks or single addresses. With no
// trusted proxies the peer address is always used.
func NewClientIPResolver(trustedProxies []string) (*ClientIPResolver, error) {
	resolver := &ClientIPResolver{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", entry)
			}
			bits := 8 * net.IPv6len
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 8 * net.IPv4len
			}
			resolver.trusted = append(resolver.trusted, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, block, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", entry, err)
		}
		resolver.trusted = append(resolver.trusted, block)
	}
	return resolver, nil
}

func (c *ClientIPResolver) isTrusted(ip net.IP) bool {
	for _, block := range c.trusted {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

func (c *ClientIPResolver) ClientIP(r *http.Request) string {
	peer, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		peer = r.RemoteAddr
	}

	peerIP := net.ParseIP(peer)
	if peerIP == nil || !c.isTrusted(peerIP) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	client := peer
	for i := len(hops) - 1; i >= 0; i-- {
		hop := net.ParseIP(strings.TrimSpace(hops[i]))
		if hop == nil {
			break
		}
		client = hop.String()
		if !c.isTrusted(hop) {
			break
		}
	}
	return client
}

// Identifier counts authenticated callers by user id and everyone else by
// client address.
func (c *ClientIPResolver) Identifier(r *http.Request) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return "user:" + id
	}
	return "ip:" + c.ClientIP(r)
}

var directPeer = &ClientIPResolver{}

// DefaultIdentifier trusts no proxy headers.
func DefaultIdentifier(r *http.Request) string {
	return directPeer.Identifier(r)
}
