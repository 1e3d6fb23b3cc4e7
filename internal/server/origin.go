// Package server normalizes and validates HTTP origins for WebSocket
// requests to enforce the configured access control.
package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type originPolicy struct {
	log      *slog.Logger
	allowAll bool
	allowed  map[string]struct{}
}

func newOriginPolicy(log *slog.Logger, origins []string) *originPolicy {
	policy := &originPolicy{
		log:     log,
		allowed: make(map[string]struct{}, len(origins)),
	}

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			policy.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		policy.allowed[normalized] = struct{}{}
	}

	return policy
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

func (p *originPolicy) check(r *http.Request) bool {
	header := r.Header.Get("Origin")
	normalized, ok := normalizeOrigin(header)
	if !ok {
		p.log.Warn("blocked WebSocket connection from disallowed origin", "origin", header)
		return false
	}

	if p.allowAll {
		return true
	}
	if _, exists := p.allowed[normalized]; exists {
		return true
	}

	p.log.Warn("blocked WebSocket connection from disallowed origin", "origin", header)
	return false
}
