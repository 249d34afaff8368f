package catalog

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Fetchable returns nil when raw is an HTTPS URL a remote service could
// download. The error text is the reason it could not.
func Fetchable(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("audio url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("audio url is malformed")
	}

	switch scheme := strings.ToLower(u.Scheme); scheme {
	case "https":
	case "blob", "file", "data":
		return fmt.Errorf("%s: url only exists on the recording device", scheme)
	case "":
		return fmt.Errorf("audio url has no scheme")
	default:
		return fmt.Errorf("scheme %q is not https", scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("audio url has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("host %q is local", host)
	}
	if ip := net.ParseIP(host); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return fmt.Errorf("host %q is a loopback address", host)
	}
	return nil
}

// IsFetchable reports whether Fetchable accepts raw.
func IsFetchable(raw string) bool {
	return Fetchable(raw) == nil
}
