package httpclient

import (
	"net/http"
	"net/url"
)

// Request is one call through a Client. Path is resolved against BaseURL.
// Body may be an io.Reader, []byte, string, or a value to encode as JSON.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   any
	Auth   *AuthConfig // replaces the client auth when set
}

// Response is a fully read reply. Non-2xx replies also come back as an
// *Error from Do, with the Response still populated.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
