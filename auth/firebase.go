package auth

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/luqmanAA/go-firebase-stripe/models"
)

// FirebaseClient is the subset of *firebaseauth.Client the verifier uses.
type FirebaseClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
	GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error)
}

// FirebaseVerifier verifies Firebase ID tokens and loads the user record for
// the email address, so disabled or deleted accounts are rejected too.
type FirebaseVerifier struct {
	client FirebaseClient
}

func NewFirebaseVerifier(client FirebaseClient) *FirebaseVerifier {
	return &FirebaseVerifier{client: client}
}

func (v *FirebaseVerifier) Verify(ctx context.Context, credential string) (*models.Principal, error) {
	if credential == "" {
		return nil, ErrMissingToken
	}

	token, err := v.client.VerifyIDToken(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := v.client.GetUser(ctx, token.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading user %s: %v", ErrInvalidToken, token.UID, err)
	}
	if user.Disabled {
		return nil, fmt.Errorf("%w: user %s is disabled", ErrInvalidToken, token.UID)
	}

	principal := &models.Principal{ID: token.UID}
	if user.UserInfo != nil {
		principal.Email = user.UserInfo.Email
	}
	return principal, nil
}
