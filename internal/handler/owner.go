package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/serverless-todo/pkg/respond"
)

var ErrUnauthenticated = errors.New("authentication required")

// OwnerResolver extracts the authenticated owner id from a request.
type OwnerResolver func(r *http.Request) (string, error)

type contextKey struct {
	name string
}

var ownerKey = contextKey{"owner"}

// OwnerFromContext returns the id stored by RequireOwner, or "".
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey).(string)
	return owner
}

func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// RequireOwner rejects requests without an owner identity with 401.
func RequireOwner(resolve OwnerResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := resolve(r)
			if err != nil || owner == "" {
				logger.Debug("unauthenticated request", zap.String("path", r.URL.Path), zap.Error(err))
				respond.Error(w, r, http.StatusUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// APIGatewayOwner reads the caller from the API Gateway HTTP API authorizer:
// the JWT authorizer's sub claim, then a Lambda authorizer's sub.
func APIGatewayOwner(r *http.Request) (string, error) {
	proxyCtx, ok := core.GetAPIGatewayV2ContextFromContext(r.Context())
	if !ok || proxyCtx.Authorizer == nil {
		return "", ErrUnauthenticated
	}

	if jwtAuth := proxyCtx.Authorizer.JWT; jwtAuth != nil {
		if sub := jwtAuth.Claims["sub"]; sub != "" {
			return sub, nil
		}
	}
	if sub, ok := proxyCtx.Authorizer.Lambda["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", ErrUnauthenticated
}

// BearerOwner validates an HS256 bearer token and returns its subject.
func BearerOwner(secret []byte) OwnerResolver {
	return func(r *http.Request) (string, error) {
		raw := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
		if raw == "" {
			return "", ErrUnauthenticated
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		if claims.Subject == "" {
			return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
		}
		return claims.Subject, nil
	}
}
