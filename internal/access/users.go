package access

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/sprintyard/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserOpts holds parameters for creating a user account.
type UserOpts struct {
	Name     string
	Password string
	Nickname string
	Email    string
}

// CreateUser creates a user with a bcrypt-hashed credential. The nickname
// defaults to the login name.
func CreateUser(db *gorm.DB, opts UserOpts) (*models.User, error) {
	opts.Name = strings.TrimSpace(opts.Name)
	if opts.Name == "" {
		return nil, fmt.Errorf("access: user name is required")
	}
	if opts.Password == "" {
		return nil, fmt.Errorf("access: password is required")
	}
	if opts.Nickname == "" {
		opts.Nickname = opts.Name
	}

	var count int64
	if err := db.Model(&models.User{}).Where("name = ?", opts.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("access: check user name %q: %w", opts.Name, err)
	}
	if count > 0 {
		return nil, fmt.Errorf("access: user name already exists: %s", opts.Name)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("access: hash password: %w", err)
	}

	user := models.User{
		Name:       opts.Name,
		Credential: string(hash),
		Nickname:   opts.Nickname,
		Email:      opts.Email,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("access: create user: %w", err)
	}
	return &user, nil
}

// Authenticate checks a name/password pair and returns the matching user.
func Authenticate(db *gorm.DB, name, password string) (*models.User, error) {
	var user models.User
	if err := db.Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("access: invalid credentials")
		}
		return nil, fmt.Errorf("access: get user %q: %w", name, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Credential), []byte(password)); err != nil {
		return nil, fmt.Errorf("access: invalid credentials")
	}
	return &user, nil
}

// ListUsers returns all users with their role rows preloaded.
func ListUsers(db *gorm.DB) ([]models.User, error) {
	var users []models.User
	if err := db.Preload("Roles").Order("id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("access: list users: %w", err)
	}
	return users, nil
}

// GetUserByName looks up a user by login name.
func GetUserByName(db *gorm.DB, name string) (*models.User, error) {
	var user models.User
	if err := db.Where("name = ?", name).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("access: user not found: %s", name)
		}
		return nil, fmt.Errorf("access: get user %q: %w", name, err)
	}
	return &user, nil
}
