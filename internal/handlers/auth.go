package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/hash"
	"github.com/moonmist/storefront/internal/logging"
	"github.com/moonmist/storefront/internal/models"
	"github.com/moonmist/storefront/internal/token"
)

var validate = validator.New()

type AuthHandler struct {
	DB       *gorm.DB
	Issuer   *token.Issuer
	Producer *events.Producer
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func userJSON(u *models.User) echo.Map {
	return echo.Map{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"role":  u.Role,
	}
}

func (h *AuthHandler) publish(c echo.Context, userID string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "user_events", userID, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Missing fields")
	}
	if err := validate.Struct(req); err != nil {
		return fail(c, http.StatusBadRequest, "Missing fields")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return fail(c, http.StatusBadRequest, "Email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	user := models.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         "customer",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	signed, err := h.Issuer.Issue(&user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.publish(c, user.ID, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"token": signed,
		"user":  userJSON(&user),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Missing fields")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Missing fields")
	}

	// A missing user and a wrong password answer identically.
	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusBadRequest, "Invalid credentials")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return fail(c, http.StatusBadRequest, "Invalid credentials")
	}

	signed, err := h.Issuer.Issue(&user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.publish(c, user.ID, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"token": signed,
		"user":  userJSON(&user),
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	var favoritesCount int64
	if err := h.DB.Model(&models.Favorite{}).Where("user_id = ?", user.ID).Count(&favoritesCount).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	profile := userJSON(&user)
	profile["favoritesCount"] = favoritesCount
	return c.JSON(http.StatusOK, echo.Map{"user": profile})
}
