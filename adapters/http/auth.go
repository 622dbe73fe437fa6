package http

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/endo-ava/link-persona-bot/adapters/websocket"
	"github.com/endo-ava/link-persona-bot/config"
	"github.com/endo-ava/link-persona-bot/utils/log"
)

const tokenIssuer = "link-persona-bot"

type Auth struct {
	apiKey    string
	apiSecret string
	jwtSecret []byte
	expiry    time.Duration
	now       func() time.Time
}

func NewAuth(cfg config.AuthConfig) *Auth {
	expiry := cfg.JWTExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	return &Auth{
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
		jwtSecret: []byte(cfg.JWTSecret),
		expiry:    expiry,
		now:       time.Now,
	}
}

// Enabled reports whether token issuance is configured.
func (a *Auth) Enabled() bool {
	return a.apiKey != "" && a.apiSecret != "" && len(a.jwtSecret) > 0
}

// GenerateJWT exchanges the X-API-Key and X-API-Secret headers for a bearer token.
func (a *Auth) GenerateJWT(c echo.Context) error {
	key := c.Request().Header.Get("X-API-Key")
	secret := c.Request().Header.Get("X-API-Secret")

	keyOK := subtle.ConstantTimeCompare([]byte(key), []byte(a.apiKey)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(a.apiSecret)) == 1
	if !keyOK || !secretOK {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	now := a.now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    tokenIssuer,
		Subject:   key,
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		log.WithCtx(requestContext(c)).Error("Error signing JWT", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token": tokenString,
		"type":  "Bearer",
	})
}

// JWTMiddleware accepts "Authorization: Bearer <token>" or, for browsers
// that cannot set headers on websocket upgrades, a token query parameter.
func (a *Auth) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}
		}
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return a.jwtSecret, nil
		}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(a.now))
		if err != nil || !token.Valid {
			log.WithCtx(requestContext(c)).Debug("JWT validation failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		c.Set(websocket.SubjectKey, claims.Subject)
		return next(c)
	}
}
