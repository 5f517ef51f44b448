package http

import (
	"net"
	"net/http"
	"time"
)

// Doer is the subset of *http.Client used by the outbound API clients.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient returns an *http.Client with the given overall timeout and a pooled transport.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          50,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}
