package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/pkg/metrics"
)

// DefaultUserSearchLimit bounds user search results.
const DefaultUserSearchLimit = 10

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = errors.New("user service: user not found")

var likeEscaper = strings.NewReplacer(`!`, `!!`, `%`, `!%`, `_`, `!_`)

// UserService looks up user accounts.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Search returns active users whose username or full name starts with name,
// ignoring case. An empty name matches nothing.
func (s *UserService) Search(ctx context.Context, name string, limit int) ([]models.User, error) {
	ctx = ensureContext(ctx)
	metrics.UserSearches.Inc()

	name = strings.TrimSpace(name)
	if name == "" {
		return []models.User{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = DefaultUserSearchLimit
	}

	pattern := likeEscaper.Replace(strings.ToLower(name)) + "%"

	var users []models.User
	err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(`(LOWER(username) LIKE ? ESCAPE '!' OR LOWER(fullname) LIKE ? ESCAPE '!')`, pattern, pattern).
		Order("username").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("user service: search: %w", err)
	}
	return users, nil
}

// GetByUsername returns the user with the given username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}
