package webhook

import (
	"net"
	"net/url"
	"strings"
)

// blockedHosts are hostnames rejected outright, before any IP parsing.
var blockedHosts = map[string]struct{}{
	"localhost": {},
	"0.0.0.0":   {},
}

// ValidateURL rejects URLs that are not well-formed absolute http(s) URLs
// or that target loopback/private-network hosts (SSRF mitigation). The
// check runs at registration and update time only; a host that later
// resolves to a private address is out of scope here.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Message: "invalid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Message: "missing host"}
	}

	host := strings.ToLower(u.Hostname())
	if _, blocked := blockedHosts[host]; blocked {
		return &ValidationError{Field: "url", Message: "host is not allowed"}
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() || isPrivate(ip) {
			return &ValidationError{Field: "url", Message: "host resolves to a private network"}
		}
	}

	return nil
}

// isPrivate reports whether ip falls inside 10.0.0.0/8, 172.16.0.0/12,
// or 192.168.0.0/16.
func isPrivate(ip net.IP) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	switch {
	case v4[0] == 10:
		return true
	case v4[0] == 172 && v4[1] >= 16 && v4[1] <= 31:
		return true
	case v4[0] == 192 && v4[1] == 168:
		return true
	}
	return false
}

// ValidationError indicates invalid registration input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "webhook validation: " + e.Field + ": " + e.Message
}
