package platform

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// UserAgent is sent with every download request.
var UserAgent = "tcman/dev"

// NewHTTPClient returns a client for release downloads. Proxy settings come
// from HTTP_PROXY and HTTPS_PROXY.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Minute,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// IsRetryableStatus reports whether an HTTP status warrants another attempt.
func IsRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
