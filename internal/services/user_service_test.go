package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
	"backchannel/internal/models"
)

type fakeEmailService struct {
	welcomes    []string
	resetTokens map[string]string
}

func newFakeEmailService() *fakeEmailService {
	return &fakeEmailService{resetTokens: make(map[string]string)}
}

func (f *fakeEmailService) SendWelcomeEmail(email, firstName string) error {
	f.welcomes = append(f.welcomes, email)
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(email, token string) error {
	f.resetTokens[email] = token
	return nil
}

func newUserFixture(t *testing.T) (UserService, *fakeUserRepo, *fakeEmailService) {
	t.Helper()
	repo := newFakeUserRepo()
	email := newFakeEmailService()
	return NewUserService(repo, email, NewAuthService()), repo, email
}

func TestUserServiceRegister(t *testing.T) {
	svc, _, email := newUserFixture(t)

	user, err := svc.Register(context.Background(), "Aida", "K", " Aida@Example.COM ", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "aida@example.com", user.Email)
	require.Equal(t, authz.SiteMember, user.Role)
	require.True(t, user.IsActive)
	require.NotEqual(t, "s3cret", user.PasswordHash)
	require.Equal(t, []string{"aida@example.com"}, email.welcomes)

	// почта занята независимо от регистра
	_, err = svc.Register(context.Background(), "Other", "K", "AIDA@example.com", "x")
	require.Error(t, err)
	require.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	_, err = svc.Register(context.Background(), "Empty", "K", "empty@example.com", "   ")
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestUserServiceUpdatePermissions(t *testing.T) {
	svc, repo, _ := newUserFixture(t)

	alice := &models.User{Email: "alice@example.com", Role: authz.SiteMember}
	bob := &models.User{Email: "bob@example.com", Role: authz.SiteMember}
	require.NoError(t, repo.Create(context.Background(), alice))
	require.NoError(t, repo.Create(context.Background(), bob))

	// чужой профиль правит только админ
	edit := *bob
	edit.FirstName = "Robert"
	err := svc.Update(context.Background(), alice.ID, authz.SiteMember, &edit)
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, svc.Update(context.Background(), alice.ID, authz.SiteAdmin, &edit))

	// смена роли — только админ, даже на своём аккаунте
	self := *alice
	self.Role = authz.SiteMod
	err = svc.Update(context.Background(), alice.ID, authz.SiteMember, &self)
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	err = svc.Delete(context.Background(), bob.ID, authz.SiteMember, alice.ID)
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
	require.NoError(t, svc.Delete(context.Background(), bob.ID, authz.SiteMember, bob.ID))
}

func TestUserServiceUpdatePassword(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), "Aida", "K", "aida@example.com", "old-pass")
	require.NoError(t, err)

	err = svc.UpdatePassword(context.Background(), user.ID, "wrong", "new-pass")
	require.Error(t, err)
	require.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	require.NoError(t, svc.UpdatePassword(context.Background(), user.ID, "old-pass", "new-pass"))

	updated, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, NewAuthService().ComparePassword(updated.PasswordHash, "new-pass"))
}

func TestUserServiceResetFlow(t *testing.T) {
	svc, repo, email := newUserFixture(t)

	user, err := svc.Register(context.Background(), "Aida", "K", "aida@example.com", "old-pass")
	require.NoError(t, err)

	// неизвестная почта не выдаёт себя ошибкой
	require.NoError(t, svc.ForgotPassword(context.Background(), "nobody@example.com"))
	require.Empty(t, email.resetTokens)

	require.NoError(t, svc.ForgotPassword(context.Background(), "aida@example.com"))
	token, ok := email.resetTokens["aida@example.com"]
	require.True(t, ok)
	require.NotEmpty(t, token)

	err = svc.ResetPassword(context.Background(), "bogus-token", "new-pass")
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))

	require.NoError(t, svc.ResetPassword(context.Background(), token, "new-pass"))
	updated, err := svc.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NoError(t, NewAuthService().ComparePassword(updated.PasswordHash, "new-pass"))
	// токен одноразовый
	require.Nil(t, updated.ResetToken)

	// просроченный токен
	require.NoError(t, svc.ForgotPassword(context.Background(), "aida@example.com"))
	expired := time.Now().Add(-time.Minute)
	updated.ResetExpiresAt = &expired
	require.NoError(t, repo.Update(context.Background(), updated))
	err = svc.ResetPassword(context.Background(), email.resetTokens["aida@example.com"], "another")
	require.Error(t, err)
	require.Equal(t, apperrors.KindBadRequest, apperrors.KindOf(err))
}

func TestUserServiceRefreshRotation(t *testing.T) {
	svc, _, _ := newUserFixture(t)

	user, err := svc.Register(context.Background(), "Aida", "K", "aida@example.com", "pass")
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	require.NoError(t, svc.StoreRefresh(context.Background(), user.ID, "tok-1", exp))

	got, err := svc.GetByRefreshToken(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, user.ID, got.ID)

	rotated, err := svc.RotateRefresh(context.Background(), "tok-1", "tok-2", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rotated)

	stale, err := svc.GetByRefreshToken(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Nil(t, stale)
	fresh, err := svc.GetByRefreshToken(context.Background(), "tok-2")
	require.NoError(t, err)
	require.NotNil(t, fresh)
}
