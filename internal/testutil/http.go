package testutil

import (
	"net"
	"net/http"
	"time"
)

// NoProxyClient returns an HTTP client that ignores HTTP_PROXY, so tests
// reach a server on 127.0.0.1 directly even on hosts with a proxy set.
func NoProxyClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: nil,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}
