package local

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Errors returned by Verify.
var (
	ErrSignatureInvalid = errors.New("local: signature invalid")
	ErrSignatureExpired = errors.New("local: signature expired")
)

// Signer issues and checks signed object URLs of the form
// <public>/objects/<path>?expires=<unix>&nonce=<hex>&sig=<hex>.
type Signer struct {
	publicURL string
	key       []byte
	now       func() time.Time
}

// NewSigner creates a signer for URLs under publicURL.
func NewSigner(publicURL string, key []byte) *Signer {
	return &Signer{publicURL: strings.TrimRight(publicURL, "/"), key: key, now: time.Now}
}

// Sign returns a URL for path valid until expires. A random nonce makes
// every URL distinct even within the same second.
func (s *Signer) Sign(path string, expires time.Time) string {
	nonce := make([]byte, 8)
	_, _ = io.ReadFull(rand.Reader, nonce)
	exp := strconv.FormatInt(expires.Unix(), 10)
	n := hex.EncodeToString(nonce)

	q := url.Values{}
	q.Set("expires", exp)
	q.Set("nonce", n)
	q.Set("sig", s.mac(path, exp, n))
	return fmt.Sprintf("%s/objects/%s?%s", s.publicURL, escapePath(path), q.Encode())
}

// Verify checks the query parameters issued by Sign for path.
func (s *Signer) Verify(path string, q url.Values) error {
	exp, n, sig := q.Get("expires"), q.Get("nonce"), q.Get("sig")
	want := s.mac(path, exp, n)
	if sig == "" || !hmac.Equal([]byte(sig), []byte(want)) {
		return ErrSignatureInvalid
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return ErrSignatureInvalid
	}
	if !s.now().Before(time.Unix(unix, 0)) {
		return ErrSignatureExpired
	}
	return nil
}

func (s *Signer) mac(path, expires, nonce string) string {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(path + "\n" + expires + "\n" + nonce))
	return hex.EncodeToString(h.Sum(nil))
}

func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

// Handler serves objects under /objects/ after verifying the signature.
// Expired or forged URLs get 403, the status signed-URL consumers treat as
// "refresh and retry".
func Handler(st *Storage) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/objects/")
		if path == r.URL.Path || path == "" {
			http.NotFound(w, r)
			return
		}
		if err := st.signer.Verify(path, r.URL.Query()); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		full, err := st.resolve(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		http.ServeFile(w, r, full)
	})
}
