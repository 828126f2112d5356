package websocket

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/PI304/PinTalk-API/internal/entity"
	chatroom_repo "github.com/PI304/PinTalk-API/internal/repo/chatroom"
)

type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// AuthenticatorFunc resolves the caller on the upgrade request. A nil host
// with a nil error means anonymous: guests carry no credentials at all.
type AuthenticatorFunc func(r *http.Request) (*entity.Host, error)

type hostClaims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// JWTAuthenticator verifies a bearer token issued by the account service
// and resolves its subject to a host row. Absent token = anonymous guest.
func JWTAuthenticator(pubKey *rsa.PublicKey, repo chatroom_repo.ChatroomRepoContract) AuthenticatorFunc {
	return func(r *http.Request) (*entity.Host, error) {
		token := getTokenFromRequest(r)
		if token == "" {
			return nil, nil
		}

		claims, err := parseAndVerify(token, pubKey)
		if err != nil {
			return nil, &AuthError{Message: "invalid token"}
		}

		hostID, err := uuid.Parse(claims.Sub)
		if err != nil {
			return nil, &AuthError{Message: "invalid token subject"}
		}

		host, appErr := repo.FindHostByID(r.Context(), hostID)
		if appErr != nil {
			return nil, &AuthError{Message: "unknown host identity"}
		}
		return host, nil
	}
}

func parseAndVerify(token string, pubKey *rsa.PublicKey) (*hostClaims, error) {
	parsedToken, err := jwt.ParseWithClaims(token, &hostClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return pubKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsedToken.Claims.(*hostClaims)
	if !ok || !parsedToken.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func getTokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// Browsers cannot set headers on websocket handshakes, so the widget
	// falls back to a query parameter.
	token := r.URL.Query().Get("token")
	if token != "" {
		return token
	}

	cookie, err := r.Cookie("access_token")
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}

// originDomain strips the scheme off the Origin header. The port stays;
// registered service domains include it when nonstandard.
func originDomain(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return ""
	}
	if idx := strings.Index(origin, "//"); idx != -1 {
		return origin[idx+2:]
	}
	return origin
}
