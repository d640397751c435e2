package clients

import (
	"fmt"
	"net"
	"net/http"
	"time"
)

const maxRedirects = 2

// userAgentTransport tags every outbound request with the service name.
type userAgentTransport struct {
	agent string
	next  http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.agent+" "+req.Header.Get("User-Agent"))
	return t.next.RoundTrip(req)
}

// NewHTTPClient returns the client used for calls to object storage. timeout bounds
// a whole request, including reading the response body.
func NewHTTPClient(agent string, timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          25,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{
		Transport:     userAgentTransport{agent: agent, next: transport},
		Timeout:       timeout,
		CheckRedirect: redirectPolicy,
	}
}

func redirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects at %s", maxRedirects, req.URL)
	}
	return nil
}
