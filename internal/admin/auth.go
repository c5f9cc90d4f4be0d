// Package admin guards the click-stats surface with a single shared admin
// credential: a bcrypt password hash checked at login, exchanged for a
// short-lived HS256 token.
package admin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"LoanScout/pkg/kit"
)

const (
	tokenTTL     = 15 * time.Minute
	maxBodyBytes = 4 << 10
)

type Auth struct {
	Hash   []byte
	Tokens *TokenMaker
	Log    *zap.Logger
}

// HashPassword is used by deploy tooling to produce the ADMIN_PASSWORD_HASH
// value consumed at startup.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

type loginReq struct {
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string `json:"access_token"`
}

func (a *Auth) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req loginReq
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	req.Password = strings.TrimSpace(req.Password)
	if req.Password == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "password required", nil)
		return
	}

	if len(a.Hash) == 0 {
		kit.WriteError(w, r, http.StatusForbidden, "admin login disabled", nil)
		return
	}
	if err := bcrypt.CompareHashAndPassword(a.Hash, []byte(req.Password)); err != nil {
		kit.WriteError(w, r, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	tok, err := a.Tokens.New("admin", tokenTTL)
	if err != nil {
		if a.Log != nil {
			a.Log.Error("token issue", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, loginResp{AccessToken: tok})
}

// Require rejects requests without a valid admin bearer token.
func Require(tokens *TokenMaker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				kit.WriteError(w, r, http.StatusUnauthorized, "missing token", nil)
				return
			}

			claims, err := tokens.Parse(strings.TrimPrefix(authz, "Bearer "))
			if err != nil || claims.Role != "admin" {
				kit.WriteError(w, r, http.StatusUnauthorized, "invalid token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
