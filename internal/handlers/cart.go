package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/logging"
	"github.com/moonmist/storefront/internal/models"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

type cartLine struct {
	Product models.Product `json:"product"`
	Qty     int            `json:"qty"`
	Price   float64        `json:"price"`
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Qty       any    `json:"qty"`
}

func (h *CartHandler) publish(c echo.Context, userID string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "cart_events", userID, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "error", err)
	}
}

// cartState loads the user's cart lines enriched with their products and the
// total quantity across all lines. A user with no cart yet gets an empty list.
func (h *CartHandler) cartState(userID string) ([]cartLine, int, error) {
	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	if len(items) == 0 {
		return []cartLine{}, 0, nil
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	var products []models.Product
	if err := h.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	byID := make(map[string]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]cartLine, 0, len(items))
	totalQty := 0
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, cartLine{Product: p, Qty: it.Qty, Price: it.Price})
		totalQty += it.Qty
	}
	return lines, totalQty, nil
}

func (h *CartHandler) respondState(c echo.Context, code int, userID, message string) error {
	lines, totalQty, err := h.cartState(userID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(code, echo.Map{
		"message": message,
		"items":   lines,
		"meta":    echo.Map{"totalItems": totalQty},
	})
}

func (h *CartHandler) Get(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}
	return h.respondState(c, http.StatusOK, claims.UserID, "")
}

// coerceQty turns the loosely typed qty field into an integer; anything
// non-numeric counts as 1.
func coerceQty(v any) int {
	switch q := v.(type) {
	case nil:
		return 1
	case float64:
		return int(q)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil {
			return 1
		}
		return n
	default:
		return 1
	}
}

func (h *CartHandler) Add(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body")
	}
	if req.ProductID == "" {
		return fail(c, http.StatusBadRequest, "productId is required")
	}
	if _, err := uuid.Parse(req.ProductID); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid productId")
	}

	qty := coerceQty(req.Qty)
	if qty <= 0 {
		return fail(c, http.StatusBadRequest, "qty must be > 0")
	}

	var product models.Product
	if err := h.DB.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Product not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	// Atomic upsert: a repeat add increments the existing line and refreshes
	// the price snapshot, without a read-modify-write race between requests.
	item := models.CartItem{
		UserID:    claims.UserID,
		ProductID: product.ID,
		Qty:       qty,
		Price:     product.Price,
	}
	err = h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"qty":   gorm.Expr("cart_items.qty + excluded.qty"),
			"price": product.Price,
		}),
	}).Create(&item).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.publish(c, claims.UserID, map[string]any{
		"type":      "cart_item_added",
		"userID":    claims.UserID,
		"productID": product.ID,
		"qty":       qty,
	})

	return h.respondState(c, http.StatusCreated, claims.UserID, "Item added to cart")
}

// Remove is idempotent: removing a product that is not in the cart, or
// removing from a cart that does not exist, both answer 200 with the current
// state.
func (h *CartHandler) Remove(c echo.Context) error {
	claims, err := requireClaims(c)
	if err != nil {
		return err
	}

	productID := c.Param("productId")
	if _, err := uuid.Parse(productID); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid productId")
	}

	res := h.DB.Where("user_id = ? AND product_id = ?", claims.UserID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, res.Error.Error())
	}

	message := "Item was not in cart"
	if res.RowsAffected > 0 {
		message = "Item removed from cart"
		h.publish(c, claims.UserID, map[string]any{
			"type":      "cart_item_removed",
			"userID":    claims.UserID,
			"productID": productID,
		})
	}

	return h.respondState(c, http.StatusOK, claims.UserID, message)
}
