package realtime

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoIdentity = errors.New("realtime: no identity in connect request")

// resolveUserID extracts and verifies a JWT from the connect request: the
// token query parameter first, then the Sec-WebSocket-Protocol header (bare
// token or "bearer <token>"). The subject claim (or user_id) becomes the
// connection identity.
func resolveUserID(r *http.Request, secret string) (string, error) {
	token := extractToken(r)
	if token == "" {
		return "", ErrNoIdentity
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	if sub, _ := claims.GetSubject(); sub != "" {
		return sub, nil
	}
	if uid, ok := claims["user_id"].(string); ok && uid != "" {
		return uid, nil
	}
	return "", ErrNoIdentity
}

func extractToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	// websocket clients that cannot set headers smuggle the token as a
	// subprotocol entry
	if proto := r.Header.Get("Sec-WebSocket-Protocol"); proto != "" {
		p := strings.TrimSpace(strings.Split(proto, ",")[0])
		if strings.HasPrefix(strings.ToLower(p), "bearer ") {
			p = strings.TrimSpace(p[7:])
		}
		return p
	}
	return ""
}
