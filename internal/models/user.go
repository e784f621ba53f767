package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"backchannel/internal/authz"
)

type User struct {
	ID           bson.ObjectID  `bson:"_id,omitempty" json:"id"`
	FirstName    string         `bson:"firstName" json:"first_name"`
	LastName     string         `bson:"lastName" json:"last_name"`
	Email        string         `bson:"email" json:"email"`
	PasswordHash string         `bson:"passwordHash" json:"-"` // не отдаём наружу
	Role         authz.SiteRole `bson:"role" json:"role"`
	IsActive     bool           `bson:"isActive" json:"is_active"`

	// refresh-хранение в БД
	RefreshToken     *string    `bson:"refreshToken,omitempty" json:"-"` // храним opaque строку
	RefreshExpiresAt *time.Time `bson:"refreshExpiresAt,omitempty" json:"-"`

	// password reset (одноразовый токен из письма)
	ResetToken     *string    `bson:"resetToken,omitempty" json:"-"`
	ResetExpiresAt *time.Time `bson:"resetExpiresAt,omitempty" json:"-"`

	PasswordChangedAt *time.Time `bson:"passwordChangedAt,omitempty" json:"-"`
	CreatedAt         time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updated_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
