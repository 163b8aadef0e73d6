// Package middleware provides the fiber middleware of the huddle API.
package middleware

import (
	"strconv"
	"strings"
	"time"

	"huddle/internal/models"
	"huddle/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token issuer and audience accepted by AuthRequired.
const (
	TokenIssuer   = "huddle-api"
	TokenAudience = "huddle-client"
)

// Locals keys set by AuthRequired.
const (
	CharacterIDLocal = "characterID"
	AccountIDLocal   = "accountID"
)

// IssueToken signs an HS256 token acting as characterID. accountID is carried
// in the "acct" claim and may be zero.
func IssueToken(secret string, characterID, accountID uint, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(characterID), 10),
		"iss": TokenIssuer,
		"aud": TokenAudience,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	if accountID != 0 {
		claims["acct"] = strconv.FormatUint(uint64(accountID), 10)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// AuthRequired enforces a bearer token and stores the acting character id
// (the "sub" claim) in c.Locals.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return unauthorized(c, "Invalid authorization header format")
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		},
			jwt.WithIssuer(TokenIssuer),
			jwt.WithAudience(TokenAudience),
		)
		if err != nil || !token.Valid {
			return unauthorized(c, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c, "Invalid token claims")
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			return unauthorized(c, "Invalid subject claim")
		}
		characterID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil || characterID == 0 {
			return unauthorized(c, "Invalid character ID in token")
		}
		c.Locals(CharacterIDLocal, uint(characterID))
		c.SetUserContext(observability.WithCharacterID(c.UserContext(), uint(characterID)))

		if acct, ok := claims["acct"].(string); ok {
			if accountID, err := strconv.ParseUint(acct, 10, 32); err == nil {
				c.Locals(AccountIDLocal, uint(accountID))
			}
		}

		return c.Next()
	}
}

// CharacterID returns the acting character set by AuthRequired, or 0.
func CharacterID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CharacterIDLocal).(uint)
	return id
}

// AccountID returns the account carried by the token, or 0.
func AccountID(c *fiber.Ctx) uint {
	id, _ := c.Locals(AccountIDLocal).(uint)
	return id
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
		Error: msg,
		Code:  "UNAUTHORIZED",
	})
}
