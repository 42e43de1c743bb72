package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/triviapark/livequiz/internal/livequiz"
)

const (
	bcryptCost = 12
	tokenTTL   = 24 * time.Hour
)

var errNoSession = errors.New("no valid session")

type authClaims struct {
	jwt.RegisteredClaims
}

// issueToken signs an HS256 token for the user, valid for one day.
func issueToken(secret []byte, userID string) (string, error) {
	claims := authClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseToken verifies the signature and expiry and returns the user ID.
func parseToken(secret []byte, token string) (string, error) {
	var claims authClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errNoSession
	}
	return claims.Subject, nil
}

// userFromRequest authenticates the Bearer token and loads the user it
// identifies.
func userFromRequest(r *http.Request, store Store, secret []byte) (livequiz.User, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return livequiz.User{}, errNoSession
	}
	userID, err := parseToken(secret, token)
	if err != nil {
		return livequiz.User{}, errNoSession
	}
	u, err := store.UserByID(r.Context(), userID)
	if errors.Is(err, ErrNotFound) {
		return livequiz.User{}, errNoSession
	}
	return u, err
}
