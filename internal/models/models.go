package models

import (
	"time"
)

type User struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name         string    `gorm:"not null"                    json:"name"`
	Email        string    `gorm:"uniqueIndex;not null"        json:"email"`
	PasswordHash string    `gorm:"not null"                    json:"-"`
	Role         string    `gorm:"not null;default:customer"   json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Product struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title       string         `gorm:"not null"                    json:"title"`
	Description string         `json:"description"`
	Price       float64        `gorm:"not null"                    json:"price"`
	Images      []string       `gorm:"serializer:json"             json:"images"`
	Categories  []string       `gorm:"serializer:json"             json:"categories"`
	Attributes  map[string]any `gorm:"serializer:json"             json:"attributes"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CartItem is one line of a user's cart. The composite unique index keeps
// at most one line per product per user; Price is the snapshot taken when
// the product was last added.
type CartItem struct {
	ID        uint      `gorm:"primaryKey"                                    json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_cart_user_product;not null"    json:"-"`
	ProductID string    `gorm:"uniqueIndex:idx_cart_user_product;not null"    json:"productId"`
	Qty       int       `gorm:"not null;check:qty>0"                          json:"qty"`
	Price     float64   `gorm:"not null"                                      json:"price"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Favorite links a user to a product; the unique index gives set semantics.
type Favorite struct {
	ID        uint      `gorm:"primaryKey"                                json:"-"`
	UserID    string    `gorm:"uniqueIndex:idx_fav_user_product;not null" json:"userId"`
	ProductID string    `gorm:"uniqueIndex:idx_fav_user_product;not null" json:"productId"`
	CreatedAt time.Time `json:"-"`
}
