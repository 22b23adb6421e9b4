package llm

import (
	"net/http"
	"testing"
)

func TestProxyFunc(t *testing.T) {
	t.Setenv("HTTP_PROXY", "")
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("NO_PROXY", "")

	proxy := proxyFunc(Config{
		HTTPProxy:  "http://proxy.internal:3128",
		HTTPSProxy: "http://secure-proxy.internal:3128",
		NoProxy:    "llm.internal",
	})

	tests := []struct {
		url      string
		expected string
		desc     string
	}{
		{url: "https://api.openai.com/v1/chat/completions", expected: "http://secure-proxy.internal:3128", desc: "https uses https proxy"},
		{url: "http://ollama.example.com/v1/models", expected: "http://proxy.internal:3128", desc: "http uses http proxy"},
		{url: "http://llm.internal/v1/models", expected: "", desc: "no_proxy host bypasses"},
		{url: "http://localhost:11434/v1/models", expected: "", desc: "localhost never proxied"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			if err != nil {
				t.Fatalf("Failed to build request: %v", err)
			}
			got, err := proxy(req)
			if err != nil {
				t.Fatalf("Proxy lookup failed: %v", err)
			}
			gotStr := ""
			if got != nil {
				gotStr = got.String()
			}
			if gotStr != tt.expected {
				t.Errorf("Expected proxy %q, got %q", tt.expected, gotStr)
			}
		})
	}
}
