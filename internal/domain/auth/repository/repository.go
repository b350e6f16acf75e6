package repository

import (
	"context"
	"time"
)

// Credential is the identity record consumed by the session service.
type Credential struct {
	ID           string
	Name         string
	Surname      string
	Email        string
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role returns the role claim value encoded into access tokens.
func (c *Credential) Role() string {
	if c.IsAdmin {
		return "Admin"
	}
	return "User"
}

// CredentialRepository abstracts the identity store. Lookups return
// (nil, nil) when no matching credential exists.
type CredentialRepository interface {
	Create(ctx context.Context, credential *Credential) error
	FindByID(ctx context.Context, id string) (*Credential, error)
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	FindByEmail(ctx context.Context, email string) (*Credential, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
