package llm

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// proxyFunc resolves the proxy for each request. Explicit settings win;
// unset fields fall back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
func proxyFunc(config Config) func(*http.Request) (*url.URL, error) {
	env := httpproxy.FromEnvironment()
	if config.HTTPProxy != "" {
		env.HTTPProxy = config.HTTPProxy
	}
	if config.HTTPSProxy != "" {
		env.HTTPSProxy = config.HTTPSProxy
	}
	if config.NoProxy != "" {
		env.NoProxy = config.NoProxy
	}

	resolve := env.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return resolve(req.URL)
	}
}

// newHTTPClient builds the client used for provider calls
func newHTTPClient(config Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxyFunc(config)
	transport.ResponseHeaderTimeout = 2 * time.Minute
	return &http.Client{Transport: transport}
}
