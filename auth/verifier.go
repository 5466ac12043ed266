package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

var (
	ErrMissingToken = errors.New("missing identity token")
	ErrInvalidToken = errors.New("invalid identity token")
)

// Verifier confirms a bearer credential with the identity provider.
// Every failure wraps ErrMissingToken or ErrInvalidToken; callers answer 401
// without telling the client which check failed.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*models.Principal, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value. It returns "" for any other shape.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
