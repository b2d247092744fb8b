package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medcare-admin/internal/auth"
	"medcare-admin/internal/model"

	"gorm.io/gorm"
)

// UserService is the user management service
type UserService interface {
	Register(ctx context.Context, req *RegisterRequest) (*model.LoginResponse, error)
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context, filters UserFilters) ([]model.User, error)
}

// RegisterRequest is the body of POST /auth/register. Registration always creates a customer.
type RegisterRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	BusinessName  string `json:"businessName"`
	LicenseNumber string `json:"licenseNumber"`
}

// CreateUserRequest creates a user with an explicit role
type CreateUserRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Password      string `json:"password" binding:"required,min=6"`
	Role          string `json:"role" binding:"required,oneof=customer admin supplier"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	BusinessName  string `json:"businessName"`
	LicenseNumber string `json:"licenseNumber"`
}

// UpdateUserRequest holds the editable user fields
type UpdateUserRequest struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty" binding:"omitempty,email"`
	Password      *string `json:"password,omitempty" binding:"omitempty,min=6"`
	Role          *string `json:"role,omitempty" binding:"omitempty,oneof=customer admin supplier"`
	Phone         *string `json:"phone,omitempty"`
	Address       *string `json:"address,omitempty"`
	BusinessName  *string `json:"businessName,omitempty"`
	LicenseNumber *string `json:"licenseNumber,omitempty"`
}

// UserFilters are the user listing filters
type UserFilters struct {
	Role   string
	Search string
}

type userServiceImpl struct {
	db   *gorm.DB
	auth *auth.Service
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, authService *auth.Service) UserService {
	return &userServiceImpl{db: db, auth: authService}
}

// Register creates a customer account and logs it in
func (s *userServiceImpl) Register(ctx context.Context, req *RegisterRequest) (*model.LoginResponse, error) {
	user, err := s.CreateUser(ctx, &CreateUserRequest{
		Name:          req.Name,
		Email:         req.Email,
		Password:      req.Password,
		Role:          model.RoleCustomer,
		Phone:         req.Phone,
		Address:       req.Address,
		BusinessName:  req.BusinessName,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		return nil, err
	}
	return s.issueToken(user)
}

// Login verifies credentials and issues a token
func (s *userServiceImpl) Login(ctx context.Context, email, password string) (*model.LoginResponse, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.auth.ComparePassword(user.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(user)
}

func (s *userServiceImpl) issueToken(user *model.User) (*model.LoginResponse, error) {
	token, err := s.auth.GenerateToken(&model.Principal{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
	})
	if err != nil {
		return nil, err
	}
	return &model.LoginResponse{Token: token, User: user}, nil
}

// CreateUser creates a new user
func (s *userServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*model.User, error) {
	email := normalizeEmail(req.Email)
	if err := s.ensureEmailAvailable(ctx, email, ""); err != nil {
		return nil, err
	}

	hashedPassword, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		Password:      hashedPassword,
		Role:          req.Role,
		Phone:         req.Phone,
		Address:       req.Address,
		BusinessName:  req.BusinessName,
		LicenseNumber: req.LicenseNumber,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflictError("a user with email %s already exists", email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// GetUserByID returns a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetUserByEmail returns a user by email
func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("user not found: %s", email)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateUser updates the given fields of a user
func (s *userServiceImpl) UpdateUser(ctx context.Context, id string, req *UpdateUserRequest) (*model.User, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if email != user.Email {
			if err := s.ensureEmailAvailable(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}
	if req.Password != nil {
		hashedPassword, err := s.auth.HashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.Password = hashedPassword
	}
	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.BusinessName != nil {
		user.BusinessName = *req.BusinessName
	}
	if req.LicenseNumber != nil {
		user.LicenseNumber = *req.LicenseNumber
	}

	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// DeleteUser deletes a user
func (s *userServiceImpl) DeleteUser(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFoundError("user not found: %s", id)
	}
	return nil
}

// ListUsers lists users matching the filters
func (s *userServiceImpl) ListUsers(ctx context.Context, filters UserFilters) ([]model.User, error) {
	query := s.db.WithContext(ctx).Model(&model.User{})

	if filters.Role != "" {
		query = query.Where("role = ?", filters.Role)
	}
	if filters.Search != "" {
		like := "%" + strings.ToLower(filters.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR email LIKE ?", like, like)
	}

	var users []model.User
	if err := query.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userServiceImpl) ensureEmailAvailable(ctx context.Context, email, exceptID string) error {
	query := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return conflictError("a user with email %s already exists", email)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
