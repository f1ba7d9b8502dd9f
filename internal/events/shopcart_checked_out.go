package events

import (
	"strconv"
	"time"

	"shopcarts/internal/models"

	"github.com/shopspring/decimal"
)

const (
	ShopcartCheckedOutName    = "ShopcartCheckedOut"
	ShopcartCheckedOutVersion = 1
)

type ShopcartCheckedOut struct {
	ShopcartID  int              `json:"shopcartId"`
	Items       []CheckedOutItem `json:"items"`
	TotalAmount models.Price     `json:"totalAmount"`
}

type CheckedOutItem struct {
	ProductID int          `json:"productId"`
	Quantity  int          `json:"quantity"`
	Price     models.Price `json:"price"`
}

func NewShopcartCheckedOut(shopcartId int, items []models.ShopcartItem, occurredAt time.Time) EventEnvelope[ShopcartCheckedOut] {
	payload := ShopcartCheckedOut{
		ShopcartID: shopcartId,
		Items:      make([]CheckedOutItem, 0, len(items)),
	}

	total := decimal.Zero
	for _, it := range items {
		payload.Items = append(payload.Items, CheckedOutItem{
			ProductID: it.ProductId,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	payload.TotalAmount = models.Price{Decimal: total.Round(2)}

	return NewEnvelope(
		ShopcartCheckedOutName,
		ShopcartCheckedOutVersion,
		strconv.Itoa(shopcartId),
		occurredAt,
		payload,
	)
}
