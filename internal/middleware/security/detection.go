package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync/atomic"

	applog "portalunk/internal/log"
)

// Reasons reported by Inspect.
const (
	ReasonScanPattern   = "scan_pattern"
	ReasonScannerAgent  = "scanner_agent"
	ReasonUnusualMethod = "unusual_method"
	ReasonLongURL       = "long_url"
	ReasonProxyChain    = "proxy_chain"
)

const (
	maxURLLength  = 2048
	maxProxyHops  = 5
	headerXFF     = "X-Forwarded-For"
	headerRealIP  = "X-Real-IP"
	headerUserAgt = "User-Agent"
)

var (
	scanPatterns = []string{
		"../", "..\\", ".env", ".git", ".ssh", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", "etc/passwd", "cmd.exe",
		"eval(", "javascript:", "<script", "union select",
	}
	scannerAgents  = []string{"sqlmap", "nmap", "nikto", "gobuster", "dirb", "masscan", "zgrab", "scanner"}
	unusualMethods = map[string]bool{"TRACE": true, "TRACK": true, "DEBUG": true, "CONNECT": true}

	privateRanges = []netip.Prefix{
		netip.MustParsePrefix("127.0.0.0/8"),
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("172.16.0.0/12"),
		netip.MustParsePrefix("192.168.0.0/16"),
		netip.MustParsePrefix("::1/128"),
	}
)

// DetectionMetrics counts what the detector has seen.
type DetectionMetrics struct {
	SuspiciousRequests int64
	InvalidIPAttempts  int64
}

// Detector flags requests that look like vulnerability scans and resolves the client IP
// behind trusted proxies.
type Detector struct {
	suspicious     atomic.Int64
	invalidIP      atomic.Int64
	trustedProxies []netip.Prefix
}

// NewDetector trusts loopback and private networks as proxies.
func NewDetector() *Detector {
	return &Detector{trustedProxies: append([]netip.Prefix(nil), privateRanges...)}
}

// AddTrustedProxy trusts forwarded headers from cidr.
func (d *Detector) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(cidr)
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trustedProxies = append(d.trustedProxies, p.Masked())
	return nil
}

// Inspect returns the first reason r looks hostile, or "" when it does not.
// Path and query are matched after percent-decoding.
func (d *Detector) Inspect(r *http.Request) string {
	if unusualMethods[r.Method] {
		return ReasonUnusualMethod
	}
	if len(r.URL.RequestURI()) > maxURLLength {
		return ReasonLongURL
	}

	target := strings.ToLower(r.URL.Path)
	if q, err := url.QueryUnescape(r.URL.RawQuery); err == nil {
		target += "?" + strings.ToLower(q)
	} else {
		target += "?" + strings.ToLower(r.URL.RawQuery)
	}
	for _, p := range scanPatterns {
		if strings.Contains(target, p) {
			return ReasonScanPattern
		}
	}

	agent := strings.ToLower(r.Header.Get(headerUserAgt))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return ReasonScannerAgent
		}
	}

	if strings.Count(r.Header.Get(headerXFF), ",") > maxProxyHops {
		return ReasonProxyChain
	}
	return ""
}

// DetectSuspiciousRequest reports whether Inspect found anything and counts
// it.
func (d *Detector) DetectSuspiciousRequest(r *http.Request) bool {
	if d.Inspect(r) == "" {
		return false
	}
	d.suspicious.Add(1)
	return true
}

// ExtractClientIP returns the peer address, or the first X-Forwarded-For
// (then X-Real-IP) address when the peer is a trusted proxy. A malformed
// forwarded address counts as an invalid IP attempt and is ignored.
func (d *Detector) ExtractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.trusted(peer.Unmap()) {
		return host
	}

	if xff := r.Header.Get(headerXFF); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if addr, err := netip.ParseAddr(first); err == nil {
			return addr.String()
		}
		d.invalidIP.Add(1)
	}
	if xri := strings.TrimSpace(r.Header.Get(headerRealIP)); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.String()
		}
	}
	return host
}

func (d *Detector) trusted(ip netip.Addr) bool {
	for _, p := range d.trustedProxies {
		if p.Contains(ip) {
			return true
		}
	}
	return false
}

// GetMetrics returns a snapshot of the counters.
func (d *Detector) GetMetrics() DetectionMetrics {
	return DetectionMetrics{
		SuspiciousRequests: d.suspicious.Load(),
		InvalidIPAttempts:  d.invalidIP.Load(),
	}
}

// Middleware logs suspicious requests. They are still served; the API
// behind it is authenticated and rate limited.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Inspect(r); reason != "" {
			d.suspicious.Add(1)
			applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Suspicious request detected",
				"reason", reason,
				applog.FieldClientIP, d.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get(headerUserAgt))
		}
		next.ServeHTTP(w, r)
	})
}
