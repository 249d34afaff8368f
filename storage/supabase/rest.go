package supabase

import (
	"strings"

	"github.com/kbukum/audiopen/httpclient"
)

// RequestAuth returns the credentials a request to the project should carry.
// A service key wins over the signed-in user's token.
func (c Config) RequestAuth() *httpclient.AuthConfig {
	if c.ServiceKey != "" {
		return httpclient.SupabaseAuth(c.ServiceKey, c.ServiceKey)
	}
	token := ""
	if c.Token != nil {
		token = c.Token()
	}
	return httpclient.SupabaseAuth(c.AnonKey, token)
}

// NewRESTClient returns a client rooted at the project's PostgREST endpoint
// ({url}/rest/v1). Table backends share it with the storage client's config.
func NewRESTClient(cfg Config) (*httpclient.Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return httpclient.New(httpclient.Config{
		BaseURL: strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		Timeout: cfg.Timeout,
		TLS:     &cfg.TLS,
	})
}
