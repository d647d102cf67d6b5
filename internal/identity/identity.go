package identity

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AgentPisite999/Car-Site/internal/common"
)

// Identity is the signed-in user as derived from the provider credential.
type Identity struct {
	Name  string
	Email string
}

// Decode extracts name and email from a Google-issued ID token. The
// signature is not checked here; the backend verifies the identity
// independently whenever it is used.
func Decode(credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, common.NewError(common.CodeUnauthorized, "credential is required", nil)
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return Identity{}, common.NewError(common.CodeUnauthorized, "credential decode failed", err)
	}
	name, _ := claims["name"].(string)
	email, _ := claims["email"].(string)
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return Identity{}, common.NewError(common.CodeUnauthorized, "credential is missing name or email", nil)
	}
	return Identity{Name: name, Email: email}, nil
}
