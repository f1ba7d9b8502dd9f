package models

import (
	"math"
	"time"
)

const (
	NotCheckedOut = 0
	CheckedOut    = 1
)

// Column limits: ids and quantity are INTEGER, price is NUMERIC(12,2).
const (
	MaxId       = math.MaxInt32
	MaxQuantity = math.MaxInt32
)

type ShopcartItem struct {
	ShopcartId int       `json:"shopcart_id" db:"shopcart_id"`
	ProductId  int       `json:"product_id" db:"product_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      Price     `json:"price" db:"price"`
	TimeAdded  time.Time `json:"time_added" db:"time_added"`
	Checkout   int       `json:"checkout" db:"checkout"`
}

func (i ShopcartItem) Key() ItemKey {
	return ItemKey{ShopcartId: i.ShopcartId, ProductId: i.ProductId}
}

type ItemKey struct {
	ShopcartId int
	ProductId  int
}

// ItemChanges holds the fields an update may overwrite; nil fields keep the stored value.
type ItemChanges struct {
	Price     *Price
	TimeAdded *time.Time
	Checkout  *int
}

// ListFilter narrows a listing; nil fields are not applied.
type ListFilter struct {
	ShopcartId *int
	ProductId  *int
}
