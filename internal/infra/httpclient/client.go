package httpclient

import (
	"net/http"
	"time"
)

// New builds an outbound client with a bounded connection pool. A zero
// timeout means no client-side deadline, callers cap streaming requests
// through the request context instead.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
