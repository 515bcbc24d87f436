package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/usestratum/stratum/server/authz"
	"github.com/usestratum/stratum/store"
)

const (
	issuer              = "stratum"
	principalContextKey = "principal"
)

// AccessTokenClaims carries the identity attributes the policy engine needs,
// so a request can be authorized without a user lookup.
type AccessTokenClaims struct {
	Username       string   `json:"username"`
	Email          string   `json:"email,omitempty"`
	HierarchyLevel int      `json:"hierarchy_level"`
	DepartmentID   *string  `json:"department_id,omitempty"`
	ProjectIDs     []string `json:"project_ids,omitempty"`
	Roles          []string `json:"roles,omitempty"`
	SessionID      *string  `json:"session_id,omitempty"`
	Classification string   `json:"classification,omitempty"`
	jwt.RegisteredClaims
}

// SignAccessToken issues a signed token for the given principal.
func SignAccessToken(principal *authz.Principal, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AccessTokenClaims{
		Username:       principal.Username,
		Email:          principal.Email,
		HierarchyLevel: principal.HierarchyLevel,
		DepartmentID:   principal.DepartmentID,
		ProjectIDs:     principal.ProjectIDs,
		Roles:          principal.Roles,
		SessionID:      principal.SessionID,
		Classification: string(principal.Classification),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseAccessToken validates a token and rebuilds the principal it encodes.
func parseAccessToken(tokenString, secret string) (*authz.Principal, error) {
	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, errors.Wrap(err, "invalid access token")
	}

	if claims.HierarchyLevel <= 0 {
		return nil, errors.New("token is missing a hierarchy level")
	}

	return &authz.Principal{
		ID:             claims.Subject,
		Username:       claims.Username,
		Email:          claims.Email,
		HierarchyLevel: claims.HierarchyLevel,
		DepartmentID:   claims.DepartmentID,
		ProjectIDs:     claims.ProjectIDs,
		Roles:          claims.Roles,
		SessionID:      claims.SessionID,
		Classification: store.Classification(claims.Classification),
	}, nil
}

// authMiddleware authenticates every request with a bearer token and stores
// the resulting principal on the request context.
func (s *APIV1Service) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		principal, err := parseAccessToken(tokenString, s.Secret)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		c.Set(principalContextKey, principal)
		return next(c)
	}
}

func principalFrom(c echo.Context) *authz.Principal {
	principal, _ := c.Get(principalContextKey).(*authz.Principal)
	return principal
}
