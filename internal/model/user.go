package model

import (
	"time"
)

// AuthProvider identifies how a user authenticates.
type AuthProvider string

const (
	ProviderLocal    AuthProvider = "local"
	ProviderGoogle   AuthProvider = "google"
	ProviderFacebook AuthProvider = "facebook"
)

// UserRole is the authorization role of a user.
type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// User is an account. PasswordHash is set iff AuthProvider is local.
type User struct {
	ID             string       `json:"id" bson:"_id"`
	Email          string       `json:"email" bson:"email"`
	PasswordHash   string       `json:"-" bson:"passwordHash,omitempty"`
	Name           string       `json:"name" bson:"name"`
	AuthProvider   AuthProvider `json:"authProvider" bson:"authProvider"`
	AuthProviderID string       `json:"authProviderId,omitempty" bson:"authProviderId,omitempty"`
	Role           UserRole     `json:"role" bson:"role"`
	LastLogin      time.Time    `json:"lastLogin" bson:"lastLogin"`
	CreatedAt      time.Time    `json:"createdAt" bson:"createdAt"`
}

// DocID implements store.Document.
func (u User) DocID() string {
	return u.ID
}

// FieldValue implements store.Document using the bson field names.
func (u User) FieldValue(name string) (any, bool) {
	switch name {
	case "_id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "name":
		return u.Name, true
	case "authProvider":
		return string(u.AuthProvider), true
	case "authProviderId":
		return u.AuthProviderID, true
	case "role":
		return string(u.Role), true
	case "lastLogin":
		return u.LastLogin, true
	}
	return nil, false
}

// RefreshToken is the server-side record of an issued refresh token.
type RefreshToken struct {
	TokenID   string    `json:"tokenId"`
	UserID    string    `json:"userId"`
	ValueHash string    `json:"valueHash"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/auth/refresh and /api/auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is returned on successful authentication.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *User     `json:"user,omitempty"`
}
