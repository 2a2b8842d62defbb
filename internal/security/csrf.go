// Package security holds the collaborator gates consulted before any
// booking business logic: CSRF double-submit and bot verification.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
)

const (
	csrfCookieName = "csrfToken"
	csrfHeaderName = "X-CSRF-Token"
)

// CSRFManager implements the double-submit pattern: the client echoes the
// issued token in a header while the cookie carries it encoded and signed.
type CSRFManager struct {
	sc     *securecookie.SecureCookie
	ttl    time.Duration
	secure bool
}

func NewCSRFManager(hashKey, blockKey []byte, ttl time.Duration, secure bool) *CSRFManager {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int(ttl.Seconds()))
	return &CSRFManager{sc: sc, ttl: ttl, secure: secure}
}

// Issue generates a fresh token, sets the signed cookie on w and returns
// the plain token for the response body.
func (m *CSRFManager) Issue(w http.ResponseWriter) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	encoded, err := m.sc.Encode(csrfCookieName, token)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		Secure:   m.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Verify reports whether the request's header token matches the cookie.
func (m *CSRFManager) Verify(r *http.Request) bool {
	header := r.Header.Get(csrfHeaderName)
	if header == "" {
		return false
	}
	c, err := r.Cookie(csrfCookieName)
	if err != nil {
		return false
	}
	var cookieToken string
	if err := m.sc.Decode(csrfCookieName, c.Value, &cookieToken); err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookieToken)) == 1
}

// Middleware rejects state-changing requests before any side effect when
// the CSRF check fails.
func (m *CSRFManager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Verify(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "code": "CSRF_MISMATCH", "error": "invalid CSRF token"})
			return
		}
		c.Next()
	}
}
