package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/DocRAG/internal/config"
)

var (
	once   sync.Once
	client *http.Client
)

// GetClient returns the process wide client the model providers share so their
// connections to the same host are reused.
func GetClient() *http.Client {
	once.Do(func() {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxIdleConns = config.MaxIdleConns
		transport.MaxIdleConnsPerHost = config.MaxIdleConnsPerHost
		transport.IdleConnTimeout = config.IdleConnTimeout

		client = &http.Client{
			Transport: transport,
			Timeout:   config.ProviderRequestTimeout,
		}
	})
	return client
}
