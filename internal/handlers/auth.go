package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/vitrina/internal/config"
	"github.com/example/vitrina/internal/models"
	"github.com/example/vitrina/internal/services"
	"github.com/example/vitrina/internal/utils"
)

// AuthHandler bundles dependencies for account endpoints.
type AuthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type signupRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	IsAgree         bool   `json:"is_agree" validate:"required"`
}

// Signup creates a new user account.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := services.ValidateStruct(req); err != nil {
		return err
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Email:        req.Email,
		FirstName:    utils.SanitizeText(req.FirstName),
		LastName:     utils.SanitizeText(req.LastName),
		PasswordHash: passwordHash,
		IsAgree:      req.IsAgree,
	}
	if err := h.db.Create(&user).Error; err != nil {
		return err
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user":    user,
		"access":  token,
	})
}

type signinRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// Signin authenticates an existing user by email.
func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req signinRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(req); err != nil {
		return err
	}

	var user models.User
	if err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Identifier))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    user,
		"access":  token,
	})
}

func (h *AuthHandler) loadUser(c *fiber.Ctx) (*models.User, error) {
	userID, err := currentUser(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "user not found")
		}
		return nil, err
	}
	return &user, nil
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updateMeRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// UpdateMe changes the user's name.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req updateMeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(req); err != nil {
		return err
	}

	if req.FirstName != nil {
		user.FirstName = utils.SanitizeText(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = utils.SanitizeText(*req.LastName)
	}
	if err := h.db.Model(user).Select("first_name", "last_name").Updates(user).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": user})
}

type updatePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

// UpdatePassword replaces the user's password.
func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req updatePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := services.ValidateStruct(req); err != nil {
		return err
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}
	if err := h.db.Model(user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "password updated"})
}
