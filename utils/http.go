package utils

import "net/http"

const (
	UserAgent = "adbreak/1.0 (github.com/marcus-crane/adbreak)"
)

type UARoundtripper struct {
	RT http.RoundTripper
}

func (uart *UARoundtripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", UserAgent)
	rt := uart.RT
	if rt == nil {
		rt = http.DefaultTransport
	}
	return rt.RoundTrip(req)
}

// NewHTTPClient returns a client that identifies itself to stream servers.
// Streams never end so callers are expected to bound requests with a context.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &UARoundtripper{RT: http.DefaultTransport},
	}
}
