package transport

import (
	"fmt"
	"net/url"
	"strings"

	sdkerrors "github.com/hostlink-dev/hostlink-sdk/go/domain/errors"
)

// originPattern is a compiled allow-list entry. Patterns are host names with
// an optional port, optionally prefixed with "https://". One label other
// than the last may be "*".
type originPattern struct {
	raw      string
	segments []string
	wildcard bool
}

func compileOrigins(patterns []string) ([]originPattern, error) {
	out := make([]originPattern, 0, len(patterns))
	for _, p := range patterns {
		op, err := compileOrigin(p)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func compileOrigin(p string) (originPattern, error) {
	host := strings.TrimSpace(p)
	if i := strings.Index(host, "://"); i >= 0 {
		if host[:i] != "https" {
			return originPattern{}, &sdkerrors.ConfigError{Field: "allowedOrigins", Err: fmt.Errorf("origin %q must use https", p)}
		}
		host = host[i+3:]
	}
	host = strings.TrimSuffix(host, "/")
	if host == "" || strings.ContainsAny(host, "/?#") {
		return originPattern{}, &sdkerrors.ConfigError{Field: "allowedOrigins", Err: fmt.Errorf("invalid origin pattern %q", p)}
	}
	segments := strings.Split(strings.ToLower(host), ".")
	wildcards := 0
	for i, s := range segments {
		if s == "" {
			return originPattern{}, &sdkerrors.ConfigError{Field: "allowedOrigins", Err: fmt.Errorf("invalid origin pattern %q", p)}
		}
		if s != "*" {
			continue
		}
		wildcards++
		if i == len(segments)-1 || wildcards > 1 {
			return originPattern{}, &sdkerrors.ConfigError{Field: "allowedOrigins", Err: fmt.Errorf("origin pattern %q may only use one wildcard label before the top level domain", p)}
		}
	}
	return originPattern{raw: host, segments: segments, wildcard: wildcards > 0}, nil
}

// matchHost reports whether host matches label for label.
func (p originPattern) matchHost(host string) bool {
	hs := strings.Split(strings.ToLower(host), ".")
	if len(hs) != len(p.segments) {
		return false
	}
	for i, s := range p.segments {
		if s != "*" && s != hs[i] {
			return false
		}
	}
	return true
}

// exactOrigin returns the https origin of a pattern without wildcards.
func (p originPattern) exactOrigin() (string, bool) {
	if p.wildcard {
		return "", false
	}
	return "https://" + p.raw, true
}

// originHost returns the host of an https origin, or false for any other scheme.
func originHost(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return "", false
	}
	return u.Host, true
}

func matchesAny(patterns []originPattern, origin string) bool {
	host, ok := originHost(origin)
	if !ok {
		return false
	}
	for _, p := range patterns {
		if p.matchHost(host) {
			return true
		}
	}
	return false
}
