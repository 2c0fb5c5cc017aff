package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleTech  Role = "tech"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTech, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	LoyaltyPoints int        `json:"loyaltyPoints"`
	ReferralCode  *string    `json:"referralCode,omitempty"`
	ReferredBy    *uuid.UUID `json:"referredBy,omitempty"`
	Address       string     `json:"address,omitempty"`
	Lat           *float64   `json:"lat,omitempty"`
	Lng           *float64   `json:"lng,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (u User) EmailValue() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// ProfileUpdate carries the self-editable fields; nil means unchanged.
type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
	Lat     *float64
	Lng     *float64
}

type ListFilter struct {
	Role   Role
	Query  string
	Limit  int
	Offset int
}
