package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoice-backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type txMark struct{}

// markingTxManager tags the context it hands to the callback so repo fakes
// can check a call happened inside the transaction scope.
type markingTxManager struct {
	runs int
}

func (m *markingTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	m.runs++
	return fn(context.WithValue(ctx, txMark{}, true))
}

func inTx(ctx context.Context) bool {
	marked, _ := ctx.Value(txMark{}).(bool)
	return marked
}

type fakeUserRepo struct {
	users  map[string]*model.User
	tokens map[string]*model.RefreshToken

	failCreateToken bool
	deleteTokenInTx bool
	createTokenInTx bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  map[string]*model.User{},
		tokens: map[string]*model.RefreshToken{},
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(_ context.Context, user *model.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepo) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	f.createTokenInTx = inTx(ctx)
	if f.failCreateToken {
		return errors.New("insert failed")
	}
	f.tokens[token.Token] = token
	return nil
}

func (f *fakeUserRepo) GetRefreshToken(_ context.Context, token string) (*model.RefreshToken, error) {
	rt, ok := f.tokens[token]
	if !ok || !rt.ExpiresAt.After(time.Now()) {
		return nil, gorm.ErrRecordNotFound
	}
	return rt, nil
}

func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	f.deleteTokenInTx = inTx(ctx)
	delete(f.tokens, token)
	return nil
}

func (f *fakeUserRepo) DeleteRefreshTokensForUser(_ context.Context, userID uuid.UUID) error {
	for value, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, value)
		}
	}
	return nil
}

func (f *fakeUserRepo) seedUserWithToken(token string) *model.User {
	user := &model.User{
		ID:       uuid.New(),
		Username: "andi",
		Email:    "andi@example.com",
		Role:     "user",
	}
	f.users[user.ID.String()] = user
	f.tokens[token] = &model.RefreshToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return user
}

func TestRefreshRotatesTokenInOneTransaction(t *testing.T) {
	repo := newFakeUserRepo()
	repo.seedUserWithToken("old-token")
	txManager := &markingTxManager{}
	svc := NewUserService(repo, txManager)

	tokens, err := svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Token)
	require.NotEmpty(t, tokens.RefreshToken)
	assert.NotEqual(t, "old-token", tokens.RefreshToken)

	// Consume and reissue share one transaction scope.
	assert.Equal(t, 1, txManager.runs)
	assert.True(t, repo.deleteTokenInTx)
	assert.True(t, repo.createTokenInTx)

	// The consumed token no longer refreshes.
	_, err = svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: "old-token"})
	assert.Error(t, err)

	// The replacement does.
	_, err = svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	assert.NoError(t, err)
}

func TestRefreshReissueFailurePropagatesForRollback(t *testing.T) {
	repo := newFakeUserRepo()
	repo.seedUserWithToken("old-token")
	repo.failCreateToken = true
	svc := NewUserService(repo, &markingTxManager{})

	_, err := svc.Refresh(context.Background(), RefreshTokenRequest{RefreshToken: "old-token"})

	// The error reaches RunInTx, which rolls the consume back with it.
	assert.Error(t, err)
}

func TestLogoutWithoutTokenIsNoop(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, &markingTxManager{})

	assert.NoError(t, svc.Logout(context.Background(), ""))
}
