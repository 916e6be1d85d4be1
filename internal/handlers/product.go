package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/logging"
	"github.com/moonmist/storefront/internal/models"
	"github.com/moonmist/storefront/internal/search"
	"github.com/moonmist/storefront/internal/storage"
	"github.com/moonmist/storefront/internal/util"
)

const maxProductImages = 5

type ProductHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	Storage  storage.Service
	ES       *elasticsearch.Client
	Index    string
}

func (h *ProductHandler) publish(c echo.Context, productID string, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "product_events", productID, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "error", err)
	}
}

// indexProduct mirrors catalog writes into elasticsearch when a client is
// configured. Index failures never fail the request.
func (h *ProductHandler) indexProduct(c echo.Context, p *models.Product) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.IndexProduct(ctx, h.ES, h.Index, p); err != nil {
		logging.FromContext(ctx).Error("elasticsearch index failed", "error", err)
	}
}

func (h *ProductHandler) removeFromIndex(c echo.Context, id string) {
	if h.ES == nil {
		return
	}
	ctx := c.Request().Context()
	if err := search.RemoveProduct(ctx, h.ES, h.Index, id); err != nil {
		logging.FromContext(ctx).Error("elasticsearch delete failed", "error", err)
	}
}

func (h *ProductHandler) uploadImages(c echo.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if h.Storage == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "image storage is not configured")
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
		}
		url, err := h.Storage.UploadImage(c.Request().Context(), fh.Filename, fh.Header.Get("Content-Type"), src)
		src.Close()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func imageFiles(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil // not a multipart request
	}
	files := form.File["images"]
	if len(files) > maxProductImages {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "too many images, maximum is 5")
	}
	return files, nil
}

func (h *ProductHandler) Create(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	priceRaw := strings.TrimSpace(c.FormValue("price"))
	if title == "" || priceRaw == "" {
		return fail(c, http.StatusBadRequest, "title and price are required")
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price < 0 {
		return fail(c, http.StatusBadRequest, "price must be a non-negative number")
	}

	files, err := imageFiles(c)
	if err != nil {
		return err
	}
	imageURLs, err := h.uploadImages(c, files)
	if err != nil {
		return err
	}
	if imageURLs == nil {
		imageURLs = []string{}
	}

	product := models.Product{
		ID:          uuid.NewString(),
		Title:       title,
		Description: c.FormValue("description"),
		Price:       price,
		Images:      imageURLs,
		Categories:  parseStringList(c.FormValue("categories")),
		Attributes:  parseAttributes(c.FormValue("attributes")),
	}
	if err := h.DB.Create(&product).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.indexProduct(c, &product)
	h.publish(c, product.ID, map[string]any{
		"type":      "product_created",
		"productID": product.ID,
		"title":     product.Title,
	})

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	limit := parseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, limit)
	if page < 1 {
		page = 1
	}

	query := h.DB.Model(&models.Product{})
	if q := c.QueryParam("q"); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{"total": total, "page": page, "limit": limit},
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Product not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, product)
}

// productPatch holds only the fields the caller actually sent.
type productPatch struct {
	title       *string
	description *string
	price       *float64
	images      *[]string
	categories  *[]string
	attributes  *map[string]any
}

func (p *productPatch) apply(product *models.Product) {
	if p.title != nil {
		product.Title = *p.title
	}
	if p.description != nil {
		product.Description = *p.description
	}
	if p.price != nil {
		product.Price = *p.price
	}
	if p.images != nil {
		product.Images = *p.images
	}
	if p.categories != nil {
		product.Categories = *p.categories
	}
	if p.attributes != nil {
		product.Attributes = *p.attributes
	}
}

func (h *ProductHandler) Update(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	patch, err := h.bindPatch(c)
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Product not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	patch.apply(&product)
	if err := h.DB.Save(&product).Error; err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	h.indexProduct(c, &product)
	h.publish(c, product.ID, map[string]any{
		"type":      "product_updated",
		"productID": product.ID,
		"title":     product.Title,
	})

	return c.JSON(http.StatusOK, product)
}

// bindPatch reads a partial update from either a multipart form or a JSON
// body. Freshly uploaded files always win over an images field; an explicit
// images field (even empty) replaces the stored list; silence leaves it alone.
func (h *ProductHandler) bindPatch(c echo.Context) (*productPatch, error) {
	patch := &productPatch{}

	ctype := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ctype, echo.MIMEMultipartForm) || strings.HasPrefix(ctype, echo.MIMEApplicationForm) {
		files, err := imageFiles(c)
		if err != nil {
			return nil, err
		}

		values, err := c.FormParams()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
		}

		if v, ok := values["title"]; ok {
			patch.title = &v[0]
		}
		if v, ok := values["description"]; ok {
			patch.description = &v[0]
		}
		if v, ok := values["price"]; ok {
			price, err := strconv.ParseFloat(strings.TrimSpace(v[0]), 64)
			if err != nil || price < 0 {
				return nil, echo.NewHTTPError(http.StatusBadRequest, "price must be a non-negative number")
			}
			patch.price = &price
		}
		if v, ok := values["categories"]; ok {
			cats := parseStringList(v[0])
			patch.categories = &cats
		}
		if v, ok := values["attributes"]; ok {
			attrs := parseAttributes(v[0])
			patch.attributes = &attrs
		}

		if len(files) > 0 {
			urls, err := h.uploadImages(c, files)
			if err != nil {
				return nil, err
			}
			patch.images = &urls
		} else if v, ok := values["images"]; ok {
			imgs := parseStringList(v[0])
			patch.images = &imgs
		}
		return patch, nil
	}

	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if v, ok := body["title"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "title must be a string")
		}
		patch.title = &s
	}
	if v, ok := body["description"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "description must be a string")
		}
		patch.description = &s
	}
	if v, ok := body["price"]; ok {
		price, ok := v.(float64)
		if !ok || price < 0 {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "price must be a non-negative number")
		}
		patch.price = &price
	}
	if v, ok := body["categories"]; ok {
		cats := parseStringList(v)
		patch.categories = &cats
	}
	if v, ok := body["attributes"]; ok {
		attrs := parseAttributes(v)
		patch.attributes = &attrs
	}
	if v, ok := body["images"]; ok {
		imgs := parseStringList(v)
		patch.images = &imgs
	}
	return patch, nil
}

// Delete removes the product and sweeps every cart line and favorite that
// references it, all inside one transaction.
func (h *ProductHandler) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	var product models.Product
	if err := h.DB.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, http.StatusNotFound, "Product not found")
		}
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("product_id = ?", id).Delete(&models.Favorite{}).Error
	})
	if txErr != nil {
		return fail(c, http.StatusInternalServerError, txErr.Error())
	}

	h.removeFromIndex(c, id)
	h.publish(c, id, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product deleted from catalog, all carts, and all favorites",
		"id":      id,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
