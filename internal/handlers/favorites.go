package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/logging"
	"github.com/moonmist/storefront/internal/models"
)

type FavoritesHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type addFavoriteRequest struct {
	ProductID string `json:"productId"`
}

func (h *FavoritesHandler) publish(c echo.Context, userID string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "favorite_events", userID, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "error", err)
	}
}

func (h *FavoritesHandler) userExists(userID string) (bool, error) {
	var count int64
	if err := h.DB.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (h *FavoritesHandler) favorites(userID string) ([]models.Product, error) {
	var products []models.Product
	err := h.DB.Model(&models.Product{}).
		Joins("JOIN favorites ON favorites.product_id = products.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Find(&products).Error
	return products, err
}

func (h *FavoritesHandler) respondFavorites(c echo.Context, code int, userID, message string) error {
	products, err := h.favorites(userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(code, echo.Map{
		"message": message,
		"data":    products,
		"meta":    echo.Map{"total": len(products)},
	})
}

func (h *FavoritesHandler) List(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	exists, err := h.userExists(claims.UserID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return fail(c, http.StatusNotFound, "User not found")
	}

	return h.respondFavorites(c, http.StatusOK, claims.UserID, "")
}

func (h *FavoritesHandler) Add(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	var req addFavoriteRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == "" {
		return fail(c, http.StatusBadRequest, "productId is required")
	}
	if _, err := uuid.Parse(req.ProductID); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid productId")
	}

	var product models.Product
	if err := h.DB.Select("id").Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Product not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	// Set semantics: re-adding an existing favorite is a no-op.
	fav := models.Favorite{UserID: claims.UserID, ProductID: req.ProductID}
	if err := h.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.publish(c, claims.UserID, map[string]any{
		"type":      "favorite_added",
		"userID":    claims.UserID,
		"productID": req.ProductID,
	})

	return h.respondFavorites(c, http.StatusCreated, claims.UserID, "Added to favorites")
}

func (h *FavoritesHandler) Remove(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	productID := c.Param("productId")
	if _, err := uuid.Parse(productID); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid productId")
	}

	exists, err := h.userExists(claims.UserID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	if !exists {
		return fail(c, http.StatusNotFound, "User not found")
	}

	res := h.DB.Where("user_id = ? AND product_id = ?", claims.UserID, productID).Delete(&models.Favorite{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, res.Error.Error())
	}
	if res.RowsAffected > 0 {
		h.publish(c, claims.UserID, map[string]any{
			"type":      "favorite_removed",
			"userID":    claims.UserID,
			"productID": productID,
		})
	}

	return h.respondFavorites(c, http.StatusOK, claims.UserID, "Removed from favorites")
}
