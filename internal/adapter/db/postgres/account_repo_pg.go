package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"realtime-users/internal/domain/account"
	apperrors "realtime-users/pkg/errors"
)

// AccountRepoPG implements the account Repository using GORM.
// It runs on PostgreSQL in production and on SQLite in tests and local runs.
type AccountRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewAccountRepoPG creates a new instance of AccountRepoPG.
func NewAccountRepoPG(db *gorm.DB, log *zap.Logger) *AccountRepoPG {
	return &AccountRepoPG{db: db, log: log}
}

// AccountSchema represents the database schema for the accounts table.
type AccountSchema struct {
	ID           string    `gorm:"primaryKey;size:36"`      // UUID assigned on sign-up
	Email        string    `gorm:"not null;uniqueIndex"`    // Sign-in address, stored lower-case
	PasswordHash string    `gorm:"not null"`                // bcrypt hash
	CreatedAt    time.Time `gorm:"not null;autoCreateTime"` // Registration time
}

// TableName specifies the table name for the AccountSchema model.
func (AccountSchema) TableName() string {
	return "accounts"
}

// Migrate creates or updates the accounts table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&AccountSchema{}); err != nil {
		return fmt.Errorf("failed to migrate accounts: %w", err)
	}
	return nil
}

// Create inserts a new account. A duplicate email yields an AlreadyExistsError.
func (r *AccountRepoPG) Create(ctx context.Context, a *account.Account) error {
	if a == nil {
		return errors.New("account cannot be nil")
	}

	model := AccountSchema{
		ID:           a.ID,
		Email:        strings.ToLower(a.Email),
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
			r.log.Warn("account already exists", zap.String("email", model.Email))
			return apperrors.NewAlreadyExistsError("account", "an account with this email already exists")
		}
		r.log.Error("failed to create account in db", zap.Error(err), zap.String("email", model.Email))
		return fmt.Errorf("failed to create account: %w", err)
	}

	a.CreatedAt = model.CreatedAt
	r.log.Info("account created in db", zap.String("id", model.ID))
	return nil
}

// GetByEmail retrieves an account by its email address. It returns nil, nil
// when no account matches.
func (r *AccountRepoPG) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("account not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get account by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return toAccount(model), nil
}

// GetByID retrieves an account by its id. It returns nil, nil when no account matches.
func (r *AccountRepoPG) GetByID(ctx context.Context, id string) (*account.Account, error) {
	var model AccountSchema
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("account not found", zap.String("id", id))
			return nil, nil
		}
		r.log.Error("failed to get account from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return toAccount(model), nil
}

func toAccount(model AccountSchema) *account.Account {
	return &account.Account{
		ID:           model.ID,
		Email:        model.Email,
		PasswordHash: model.PasswordHash,
		CreatedAt:    model.CreatedAt,
	}
}

// isUniqueViolation recognizes unique constraint errors from drivers that
// GORM does not translate (TranslateError is off by default).
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
