package auth

import (
	"context"
	"errors"
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFirebaseClient struct {
	mock.Mock
}

func (m *mockFirebaseClient) VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error) {
	args := m.Called(ctx, idToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firebaseauth.Token), args.Error(1)
}

func (m *mockFirebaseClient) GetUser(ctx context.Context, uid string) (*firebaseauth.UserRecord, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firebaseauth.UserRecord), args.Error(1)
}

func TestFirebaseVerifier_Valid(t *testing.T) {
	ctx := context.Background()
	client := &mockFirebaseClient{}
	client.On("VerifyIDToken", ctx, "good").Return(&firebaseauth.Token{UID: "u1"}, nil)
	client.On("GetUser", ctx, "u1").Return(&firebaseauth.UserRecord{
		UserInfo: &firebaseauth.UserInfo{UID: "u1", Email: "u1@example.com"},
	}, nil)

	principal, err := NewFirebaseVerifier(client).Verify(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", principal.ID)
	assert.Equal(t, "u1@example.com", principal.Email)
	client.AssertExpectations(t)
}

func TestFirebaseVerifier_Empty(t *testing.T) {
	client := &mockFirebaseClient{}

	_, err := NewFirebaseVerifier(client).Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
	client.AssertNotCalled(t, "VerifyIDToken", mock.Anything, mock.Anything)
}

func TestFirebaseVerifier_Rejected(t *testing.T) {
	ctx := context.Background()
	client := &mockFirebaseClient{}
	client.On("VerifyIDToken", ctx, "expired").Return(nil, errors.New("ID token has expired"))

	principal, err := NewFirebaseVerifier(client).Verify(ctx, "expired")
	assert.Nil(t, principal)
	assert.ErrorIs(t, err, ErrInvalidToken)
	client.AssertNotCalled(t, "GetUser", mock.Anything, mock.Anything)
}

func TestFirebaseVerifier_UserLookupFails(t *testing.T) {
	ctx := context.Background()
	client := &mockFirebaseClient{}
	client.On("VerifyIDToken", ctx, "orphan").Return(&firebaseauth.Token{UID: "gone"}, nil)
	client.On("GetUser", ctx, "gone").Return(nil, errors.New("no user record found"))

	_, err := NewFirebaseVerifier(client).Verify(ctx, "orphan")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFirebaseVerifier_DisabledUser(t *testing.T) {
	ctx := context.Background()
	client := &mockFirebaseClient{}
	client.On("VerifyIDToken", ctx, "tok").Return(&firebaseauth.Token{UID: "u2"}, nil)
	client.On("GetUser", ctx, "u2").Return(&firebaseauth.UserRecord{
		UserInfo: &firebaseauth.UserInfo{UID: "u2"},
		Disabled: true,
	}, nil)

	_, err := NewFirebaseVerifier(client).Verify(ctx, "tok")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
