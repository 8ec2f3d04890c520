// Package middleware provides authentication, logging, rate limiting and tracing middleware.
package middleware

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"unajuda/internal/config"
	"unajuda/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

var (
	errMissingToken = errors.New("Faça login para continuar")
	errBadHeader    = errors.New("Cabeçalho de autorização inválido")
	errBadToken     = errors.New("Sessão inválida ou expirada")
	errBadSubject   = errors.New("Sessão inválida")
)

// IssueToken signs a session token for userID. The jti makes every token unique.
func IssueToken(userID uint) (string, error) {
	expiry := time.Duration(cfg.JWTExpiryHours) * time.Hour
	if expiry <= 0 {
		expiry = 7 * 24 * time.Hour
	}
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(expiry).Unix(),
		"jti": uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates tokenString and returns the user id in its subject.
func ParseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errBadToken
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, errBadToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errBadToken
	}

	// Subject claim per RFC 7519
	subStr, ok := claims["sub"].(string)
	if !ok {
		return 0, errBadSubject
	}

	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil || userIDVal == 0 {
		return 0, errBadSubject
	}
	return uint(userIDVal), nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errBadHeader
	}
	return parts[1], nil
}

// setUser stores the caller on the request and in the user context for logging.
func setUser(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, userID))
}

func authFailed(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewAuthRequiredError(err.Error()))
}

// AuthRequired is a middleware that enforces authentication for protected routes.
func AuthRequired(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if err != nil {
		return authFailed(c, err)
	}

	userID, err := ParseToken(tokenString)
	if err != nil {
		return authFailed(c, err)
	}

	setUser(c, userID)
	return c.Next()
}

// OptionalAuth sets userID when a valid bearer token is present and lets anonymous
// requests through otherwise. A malformed or expired token is still rejected.
func OptionalAuth(c *fiber.Ctx) error {
	tokenString, err := bearerToken(c)
	if errors.Is(err, errMissingToken) {
		return c.Next()
	}
	if err != nil {
		return authFailed(c, err)
	}

	userID, err := ParseToken(tokenString)
	if err != nil {
		return authFailed(c, err)
	}

	setUser(c, userID)
	return c.Next()
}

// WebSocketAuth reads an optional token from the query string, since browsers cannot
// set headers on a WebSocket handshake. Anonymous sockets get userID 0.
func WebSocketAuth(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		c.Locals("userID", uint(0))
		return c.Next()
	}

	userID, err := ParseToken(token)
	if err != nil {
		return authFailed(c, err)
	}

	setUser(c, userID)
	return c.Next()
}
