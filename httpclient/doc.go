// Package httpclient provides the HTTP client used for every Supabase call:
// storage objects, PostgREST tables and edge functions.
//
// Non-2xx responses come back as a classified *Error alongside the raw
// response, so callers can branch on the status (403 for expired signed
// URLs, 429 and 503 for back-pressure) and still read the body.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "https://project.supabase.co",
//	    Auth:           httpclient.SupabaseAuth(anonKey, accessToken),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("supabase"),
//	})
//
//	rows, err := httpclient.Get[[]Row](client, ctx, "/rest/v1/recordings",
//	    httpclient.WithQueryParam("order", "created_at.desc"))
package httpclient
