package middleware

import (
	"crypto/ecdsa"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/smartforge-lab/smartforge/internal/services"
)

// AuthenticatedUser is the identity extracted from a verified bearer token.
type AuthenticatedUser struct {
	WalletAddress string
	PrivyUserID   string
}

// privyClaims are the token claims issued by the auth provider. The wallet
// address rides along as a custom claim.
type privyClaims struct {
	jwt.RegisteredClaims
	WalletAddress string `json:"wallet_address"`
}

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	// VerificationKey is the provider's ES256 public key.
	VerificationKey *ecdsa.PublicKey
	// AppID is the expected token audience when set.
	AppID string
	// TokenValidator overrides key-based validation; used in tests.
	TokenValidator func(token string) (*AuthenticatedUser, error)
	// Users lazily provisions a user record on first authenticated request.
	Users services.UserService
}

// AuthMiddleware returns a Fiber middleware for Bearer token authentication.
// The verified identity is stored in c.Locals("user").
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if token == "" {
			c.Set("WWW-Authenticate", `Bearer realm="Access to protected resource"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid Bearer token",
			})
		}

		user, err := validateToken(cfg, token)
		if err != nil {
			c.Set("WWW-Authenticate", `Bearer realm="Access to protected resource"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "Invalid token",
				"details": err.Error(),
			})
		}

		// Created lazily on first authenticated request
		if cfg.Users != nil {
			if _, err := cfg.Users.GetOrCreateUser(user.WalletAddress, user.PrivyUserID); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": "Failed to resolve user",
				})
			}
		}

		c.Locals("user", user)
		return c.Next()
	}
}

func validateToken(cfg AuthConfig, token string) (*AuthenticatedUser, error) {
	if cfg.TokenValidator != nil {
		return cfg.TokenValidator(token)
	}
	if cfg.VerificationKey == nil {
		return nil, errors.New("no verification key configured")
	}

	claims := &privyClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return cfg.VerificationKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}

	if cfg.AppID != "" {
		hasAudience := false
		for _, audience := range claims.Audience {
			if audience == cfg.AppID {
				hasAudience = true
				break
			}
		}
		if !hasAudience {
			return nil, errors.New("invalid audience")
		}
	}

	if claims.WalletAddress == "" {
		return nil, errors.New("token has no wallet address")
	}

	return &AuthenticatedUser{
		WalletAddress: claims.WalletAddress,
		PrivyUserID:   claims.Subject,
	}, nil
}

// GetAuthenticatedUser retrieves the authenticated user from Fiber context.
// Returns nil if no user is found or if user is not of correct type.
func GetAuthenticatedUser(c *fiber.Ctx) *AuthenticatedUser {
	userInterface := c.Locals("user")
	if userInterface == nil {
		return nil
	}

	user, ok := userInterface.(*AuthenticatedUser)
	if !ok {
		return nil
	}

	return user
}
