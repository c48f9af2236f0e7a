package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Rating      decimal.Decimal `json:"rating"`
	Reviews     []Review        `json:"reviews"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Review struct {
	ID        string    `json:"id"`
	Author    string    `json:"user"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	CreatedAt time.Time `json:"date"`
}

// ProductFilter narrows List results. Zero values mean "no constraint".
type ProductFilter struct {
	Category  string
	Search    string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *decimal.Decimal
	Sort      ProductSort
}

type ProductSort string

const (
	SortDefault    ProductSort = ""
	SortPriceAsc   ProductSort = "price_asc"
	SortPriceDesc  ProductSort = "price_desc"
	SortRatingDesc ProductSort = "rating_desc"
)
