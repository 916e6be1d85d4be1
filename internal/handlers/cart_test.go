package handlers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moonmist/storefront/internal/models"
)

func (env *testEnv) cartItems(t *testing.T, userID string) []models.CartItem {
	t.Helper()
	var items []models.CartItem
	require.NoError(t, env.DB.Where("user_id = ?", userID).Find(&items).Error)
	return items
}

func TestGetEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")

	rec, c := env.doJSON(http.MethodGet, "/api/cart", nil)
	asUser(c, user)
	require.NoError(t, env.Cart.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	require.Empty(t, body["items"])
	require.Equal(t, float64(0), body["meta"].(map[string]any)["totalItems"])
}

func TestAddToCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)

	rec, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": product.ID, "qty": 2})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	require.Equal(t, "Item added to cart", body["message"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	require.Equal(t, float64(2), line["qty"])
	require.Equal(t, float64(100), line["price"], "price snapshot taken at add time")
	require.Equal(t, product.ID, line["product"].(map[string]any)["id"])
	require.Equal(t, float64(2), body["meta"].(map[string]any)["totalItems"])
}

func TestAddToCartMergesLines(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)

	_, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": product.ID, "qty": 2})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))

	// price changes between the two adds; the snapshot must follow
	product.Price = 120
	require.NoError(t, env.DB.Save(product).Error)

	rec, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": product.ID, "qty": 3})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	stored := env.cartItems(t, user.ID)
	require.Len(t, stored, 1, "repeat add must merge into one line")
	require.Equal(t, 5, stored[0].Qty)
	require.Equal(t, float64(120), stored[0].Price)
}

func TestAddToCartQtyCoercion(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)

	// omitted and non-numeric qty default to 1
	for _, payload := range []map[string]any{
		{"productId": product.ID},
		{"productId": product.ID, "qty": "abc"},
	} {
		_, c := env.doJSON(http.MethodPost, "/api/cart", payload)
		asUser(c, user)
		require.NoError(t, env.Cart.Add(c))
	}
	stored := env.cartItems(t, user.ID)
	require.Len(t, stored, 1)
	require.Equal(t, 2, stored[0].Qty)
}

func TestAddToCartRejectsNonPositiveQty(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)

	for _, qty := range []any{0, -3, "0"} {
		rec, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": product.ID, "qty": qty})
		asUser(c, user)
		require.NoError(t, env.Cart.Add(c))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "qty must be > 0", decodeBody(t, rec)["message"])
	}
	require.Empty(t, env.cartItems(t, user.ID))
}

func TestAddToCartValidation(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")

	rec, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"qty": 1})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": "not-a-uuid"})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, c = env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": uuid.NewString()})
	asUser(c, user)
	require.NoError(t, env.Cart.Add(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Product not found", decodeBody(t, rec)["message"])
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.createUser(t, "U1", "u1@x.com", "customer")
	u2 := env.createUser(t, "U2", "u2@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)

	_, c := env.doJSON(http.MethodPost, "/api/cart", map[string]any{"productId": product.ID, "qty": 2})
	asUser(c, u1)
	require.NoError(t, env.Cart.Add(c))

	rec, c := env.doJSON(http.MethodGet, "/api/cart", nil)
	asUser(c, u2)
	require.NoError(t, env.Cart.Get(c))
	require.Empty(t, decodeBody(t, rec)["items"])
}

func TestRemoveFromCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")
	product := env.createProduct(t, "Lamp", 100)
	require.NoError(t, env.DB.Create(&models.CartItem{UserID: user.ID, ProductID: product.ID, Qty: 2, Price: 100}).Error)

	rec, c := env.doJSON(http.MethodDelete, "/api/cart/"+product.ID, nil)
	c.SetParamNames("productId")
	c.SetParamValues(product.ID)
	asUser(c, user)
	require.NoError(t, env.Cart.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Item removed from cart", decodeBody(t, rec)["message"])
	require.Empty(t, env.cartItems(t, user.ID))

	// removing again is a no-op, still 200
	rec, c = env.doJSON(http.MethodDelete, "/api/cart/"+product.ID, nil)
	c.SetParamNames("productId")
	c.SetParamValues(product.ID)
	asUser(c, user)
	require.NoError(t, env.Cart.Remove(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Item was not in cart", decodeBody(t, rec)["message"])
}

func TestRemoveFromCartInvalidId(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "U", "u@x.com", "customer")

	rec, c := env.doJSON(http.MethodDelete, "/api/cart/nope", nil)
	c.SetParamNames("productId")
	c.SetParamValues("nope")
	asUser(c, user)
	require.NoError(t, env.Cart.Remove(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
