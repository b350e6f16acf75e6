package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/repository"
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates the gorm-backed credential repository.
func NewUserRepository(db *gorm.DB) repository.CredentialRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, credential *repository.Credential) error {
	if credential.ID == "" {
		credential.ID = uuid.NewString()
	}
	model := r.toModel(credential)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return perrors.Wrap(perrors.KindStorage, "user.create", "failed to create user", err)
	}
	credential.CreatedAt = model.CreatedAt
	credential.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*repository.Credential, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*repository.Credential, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*repository.Credential, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).
		Model(&User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return perrors.Wrap(perrors.KindStorage, "user.update_password", "failed to update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return perrors.New(perrors.KindStorage, "user.update_password", "user not found")
	}
	return nil
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*repository.Credential, error) {
	var model User
	err := r.db.WithContext(ctx).Where(query, arg).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.KindStorage, "user.find", "failed to find user", err)
	}
	return r.fromModel(&model), nil
}

func (r *userRepository) toModel(credential *repository.Credential) *User {
	return &User{
		ID:           credential.ID,
		Name:         credential.Name,
		Surname:      credential.Surname,
		Email:        credential.Email,
		Username:     credential.Username,
		PasswordHash: credential.PasswordHash,
		IsAdmin:      credential.IsAdmin,
		CreatedAt:    credential.CreatedAt,
		UpdatedAt:    credential.UpdatedAt,
	}
}

func (r *userRepository) fromModel(model *User) *repository.Credential {
	return &repository.Credential{
		ID:           model.ID,
		Name:         model.Name,
		Surname:      model.Surname,
		Email:        model.Email,
		Username:     model.Username,
		PasswordHash: model.PasswordHash,
		IsAdmin:      model.IsAdmin,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}
