package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID            uuid.UUID  `json:"id"`
	ExternalID    string     `json:"externalId"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName"`
	PhotoURL      *string    `json:"photoURL"`
	EmailVerified bool       `json:"emailVerified"`
	IsActive      bool       `json:"isActive"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	DeletedAt     *time.Time `json:"-"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

type NewUser struct {
	ExternalID    string
	Email         string
	DisplayName   string
	PhotoURL      *string
	EmailVerified bool
}

type UserChanges struct {
	DisplayName   Optional[string]
	PhotoURL      Optional[string]
	EmailVerified Optional[bool]
}

func (c UserChanges) IsEmpty() bool {
	return !c.DisplayName.Present && !c.PhotoURL.Present && !c.EmailVerified.Present
}

func (c UserChanges) Columns() map[string]any {
	columns := map[string]any{}

	if c.DisplayName.Present {
		columns["display_name"] = c.DisplayName.Value
	}

	if c.PhotoURL.Present {
		columns["photo_url"] = c.PhotoURL.Ptr()
	}

	if c.EmailVerified.Present {
		columns["email_verified"] = c.EmailVerified.Value
	}

	return columns
}
