package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 100
	minPasswordLen = 6
)

// IdentityService owns user accounts and credentials.
type IdentityService struct {
	gw  *database.Gateway
	log logrus.FieldLogger
	now func() time.Time
}

func NewIdentityService(gw *database.Gateway, log logrus.FieldLogger) *IdentityService {
	return &IdentityService{gw: gw, log: utils.Logger(log), now: time.Now}
}

type RegisterInput struct {
	Username string
	Password string
	FullName *string
	Email    *string
	Phone    *string
}

type UserPage struct {
	Users      []models.User `json:"users"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

// Register creates a customer account. Self-registration never grants another role.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleCustomer)
}

// BootstrapAdmin creates an administrator account from the command line.
func (s *IdentityService) BootstrapAdmin(ctx context.Context, in RegisterInput) (*models.User, error) {
	return s.createUser(ctx, in, models.RoleAdmin)
}

func (s *IdentityService) createUser(ctx context.Context, in RegisterInput, role models.Role) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if l := len(username); l < minUsernameLen || l > maxUsernameLen {
		return nil, withDetail(ErrInvalidInput, fmt.Sprintf("username must be %d-%d characters", minUsernameLen, maxUsernameLen))
	}
	if len(in.Password) < minPasswordLen {
		return nil, withDetail(ErrInvalidInput, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		FullName:     in.FullName,
		Email:        in.Email,
		Phone:        in.Phone,
		CreatedAt:    s.now(),
	}
	err = s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrUsernameTaken
		}
		return database.CreateIn(tx, &user)
	})
	if err != nil {
		return nil, persistence("create user", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": role}).Info("user created")
	return &user, nil
}

// Authenticate verifies credentials and stamps last_login. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *IdentityService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	err := s.gw.DB(ctx).Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, persistence("load user", err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if _, err := s.gw.Exec(ctx, "UPDATE users SET last_login = ? WHERE id = ?", now, user.ID); err != nil {
		return nil, persistence("update last login", err)
	}
	user.LastLogin = &now
	return &user, nil
}

func (s *IdentityService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.gw.DB(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence("load user", err)
	}
	return &user, nil
}

// ListUsers pages through accounts, newest first.
func (s *IdentityService) ListUsers(ctx context.Context, page, size int) (*UserPage, error) {
	page, size = utils.ClampPage(page, size)
	db := s.gw.DB(ctx)

	var total int64
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, persistence("count users", err)
	}
	users := []models.User{}
	err := db.Order("created_at DESC, id DESC").Limit(size).Offset(utils.Offset(page, size)).Find(&users).Error
	if err != nil {
		return nil, persistence("list users", err)
	}
	return &UserPage{Users: users, TotalCount: total, Page: page, PageSize: size}, nil
}

func requireAdminOnOther(actor Principal, targetID uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if actor.ID == targetID {
		return ErrSelfModification
	}
	return nil
}

// UpdateRole changes another user's role. Administrators cannot demote themselves.
func (s *IdentityService) UpdateRole(ctx context.Context, actor Principal, targetID uint, role string) (*models.User, error) {
	if err := requireAdminOnOther(actor, targetID); err != nil {
		return nil, err
	}
	next, ok := models.ParseRole(role)
	if !ok {
		return nil, withDetail(ErrInvalidRole, fmt.Sprintf("%q", role))
	}

	var user models.User
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&user, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.Role = next
		return tx.Model(&models.User{}).Where("id = ?", targetID).Update("role", next).Error
	})
	if err != nil {
		return nil, persistence("update role", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": targetID, "role": next, "actor_id": actor.ID}).Info("user role changed")
	return &user, nil
}

// DeleteUser removes an account that owns no orders.
func (s *IdentityService) DeleteUser(ctx context.Context, actor Principal, targetID uint) error {
	if err := requireAdminOnOther(actor, targetID); err != nil {
		return err
	}
	err := s.gw.Transaction(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").First(&user, targetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		var owned int64
		if err := tx.Model(&models.Order{}).Where("user_id = ?", targetID).Count(&owned).Error; err != nil {
			return err
		}
		if owned > 0 {
			return withDetail(ErrUserHasOrders, fmt.Sprintf("%d order(s)", owned))
		}
		return tx.Delete(&models.User{}, targetID).Error
	})
	if err != nil {
		return persistence("delete user", err)
	}
	s.log.WithFields(logrus.Fields{"user_id": targetID, "actor_id": actor.ID}).Info("user deleted")
	return nil
}
