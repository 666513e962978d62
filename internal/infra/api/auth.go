package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/infra/logging"
)

// ===== Session/JWT primitives =====

// Claims carry the opaque user id in sub and the platform role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret []byte
	issuer string
}

func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Mint signs a session for actor. Used by the seed command and tests.
func (m *TokenManager) Mint(actor model.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

func (m *TokenManager) Parse(tok string) (model.Actor, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(m.issuer))
	if err != nil || !tkn.Valid {
		return model.Actor{}, errors.New("invalid token")
	}
	role := model.Role(strings.ToUpper(claims.Role))
	if claims.Subject == "" || !role.Valid() {
		return model.Actor{}, errors.New("invalid claims")
	}
	return model.Actor{UserID: claims.Subject, Role: role}, nil
}

type actorKey struct{}

func WithActor(ctx context.Context, a model.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

func ActorFrom(ctx context.Context) (model.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(model.Actor)
	return a, ok
}

// Authenticate requires "Authorization: Bearer <jwt>".
func Authenticate(tm *TokenManager, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := r.Header.Get("Authorization")
			if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
				WriteError(w, r, domain.ErrUnauthenticated, logger)
				return
			}
			actor, err := tm.Parse(strings.TrimSpace(hdr[7:]))
			if err != nil {
				WriteError(w, r, domain.ErrUnauthenticated, logger)
				return
			}
			ctx := WithActor(r.Context(), actor)
			ctx = logging.WithUserID(ctx, actor.UserID)
			ctx = logging.WithRole(ctx, string(actor.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
