package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const priceScale = 2

// Price is a money amount kept with two fractional digits.
// It is written to JSON as a number and read from either a number or a numeric string.
type Price struct {
	decimal.Decimal
}

func NewPrice(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return Price{Decimal: d.Round(priceScale)}, nil
}

func MustPrice(s string) Price {
	p, err := NewPrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(p.Decimal.StringFixed(priceScale)), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		parsed, err := NewPrice(s)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid price %s: %w", b, err)
	}
	parsed, err := NewPrice(n.String())
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Price) Value() (driver.Value, error) {
	return p.Decimal.Round(priceScale).StringFixed(priceScale), nil
}

func (p *Price) Scan(value any) error {
	if err := p.Decimal.Scan(value); err != nil {
		return err
	}
	p.Decimal = p.Decimal.Round(priceScale)
	return nil
}

// Equal compares amounts, ignoring representation.
func (p Price) Equal(other Price) bool {
	return p.Decimal.Equal(other.Decimal)
}
