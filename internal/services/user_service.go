package services

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/apperrors"
	"backchannel/internal/authz"
	"backchannel/internal/models"
	"backchannel/internal/repositories"
	"backchannel/internal/utils"
)

const resetTokenTTL = time.Hour

type UserService interface {
	Register(ctx context.Context, firstName, lastName, email, plainPassword string) (*models.User, error)
	GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit, offset int64) ([]*models.User, error)
	Update(ctx context.Context, actor bson.ObjectID, actorRole authz.SiteRole, user *models.User) error
	Delete(ctx context.Context, actor bson.ObjectID, actorRole authz.SiteRole, id bson.ObjectID) error

	UpdatePassword(ctx context.Context, actor bson.ObjectID, oldPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	// refresh token storage, consumed by the auth handler
	StoreRefresh(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)
	RotateRefresh(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
	}
}

func (s *userService) Register(ctx context.Context, firstName, lastName, email, plainPassword string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.TrimSpace(plainPassword) == "" {
		return nil, apperrors.BadRequest("password is required")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to look up user")
	}
	if existing != nil {
		return nil, apperrors.Conflict("email is already registered")
	}

	hash, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        email,
		PasswordHash: hash,
		Role:         authz.SiteMember,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperrors.Internal(err, "failed to create user")
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
			// warn but do not fail registration
			log.Printf("[users][register] warning: failed to send welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *userService) List(ctx context.Context, limit, offset int64) ([]*models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to list users")
	}
	return users, nil
}

// Update lets a user edit their own profile; site admins can edit anyone.
// Role changes are admin-only.
func (s *userService) Update(ctx context.Context, actor bson.ObjectID, actorRole authz.SiteRole, user *models.User) error {
	target, err := s.GetByID(ctx, user.ID)
	if err != nil {
		return err
	}
	if actor != user.ID && actorRole != authz.SiteAdmin {
		return apperrors.Forbidden("you can only update your own account")
	}
	if user.Role != target.Role && actorRole != authz.SiteAdmin {
		return apperrors.Forbidden("only an admin can change account roles")
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return apperrors.Internal(err, "failed to update user")
	}
	return nil
}

func (s *userService) Delete(ctx context.Context, actor bson.ObjectID, actorRole authz.SiteRole, id bson.ObjectID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if actor != id && actorRole != authz.SiteAdmin {
		return apperrors.Forbidden("you can only delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Internal(err, "failed to delete user")
	}
	return nil
}

func (s *userService) UpdatePassword(ctx context.Context, actor bson.ObjectID, oldPassword, newPassword string) error {
	user, err := s.GetByID(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.authService.ComparePassword(user.PasswordHash, oldPassword); err != nil {
		return apperrors.Forbidden("current password is incorrect")
	}
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.BadRequest("new password is required")
	}
	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, actor, hash); err != nil {
		return apperrors.Internal(err, "failed to update password")
	}
	return nil
}

// ForgotPassword is intentionally quiet about unknown emails.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return apperrors.Internal(err, "failed to look up user")
	}
	if user == nil {
		log.Printf("[users][forgot] no account for email=%q, skipping", email)
		return nil
	}

	token, err := utils.NewOpaqueToken(32)
	if err != nil {
		return apperrors.Internal(err, "failed to generate reset token")
	}
	if err := s.repo.SetResetToken(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return apperrors.Internal(err, "failed to store reset token")
	}
	if s.emailService != nil {
		if err := s.emailService.SendPasswordResetEmail(user.Email, token); err != nil {
			log.Printf("[users][forgot] warning: failed to send reset email to %s: %v", user.Email, err)
		}
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.repo.GetByResetToken(ctx, token)
	if err != nil {
		return apperrors.Internal(err, "failed to look up reset token")
	}
	if user == nil || user.ResetExpiresAt == nil || time.Now().After(*user.ResetExpiresAt) {
		return apperrors.BadRequest("invalid or expired reset token")
	}
	if strings.TrimSpace(newPassword) == "" {
		return apperrors.BadRequest("new password is required")
	}
	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return apperrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.Internal(err, "failed to update password")
	}
	return nil
}

func (s *userService) StoreRefresh(ctx context.Context, userID bson.ObjectID, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(ctx, userID, token, expiresAt)
}

func (s *userService) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(ctx, token)
}

func (s *userService) RotateRefresh(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.User, error) {
	user, err := s.repo.GetByRefreshToken(ctx, oldToken)
	if err != nil || user == nil {
		return nil, err
	}
	if err := s.repo.UpdateRefresh(ctx, user.ID, newToken, expiresAt); err != nil {
		return nil, err
	}
	return user, nil
}
