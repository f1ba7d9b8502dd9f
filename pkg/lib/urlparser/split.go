package urlparser

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"shopcarts/internal/models"
)

var ErrInvalidParam = errors.New("invalid parameter")

type PathParams struct {
	ShopcartId int
	ProductId  int
}

func (p PathParams) Key() models.ItemKey {
	return models.ItemKey{ShopcartId: p.ShopcartId, ProductId: p.ProductId}
}

// ParseShopcartId parses the {shopcart_id} path segment.
func ParseShopcartId(raw string) (int, error) {
	return parseId("shopcart_id", raw)
}

// ParseItemPath parses the {shopcart_id} and {product_id} path segments.
func ParseItemPath(shopcartId, productId string) (PathParams, error) {
	params := PathParams{}

	sid, err := parseId("shopcart_id", shopcartId)
	if err != nil {
		return params, err
	}
	pid, err := parseId("product_id", productId)
	if err != nil {
		return params, err
	}

	params.ShopcartId = sid
	params.ProductId = pid
	return params, nil
}

// ParseListFilter reads the optional shopcart_id and product_id query filters.
// product-id is accepted as an alias of product_id.
func ParseListFilter(query url.Values) (models.ListFilter, error) {
	filter := models.ListFilter{}

	if raw := query.Get("shopcart_id"); raw != "" {
		id, err := parseId("shopcart_id", raw)
		if err != nil {
			return filter, err
		}
		filter.ShopcartId = &id
	}

	raw := query.Get("product_id")
	if raw == "" {
		raw = query.Get("product-id")
	}
	if raw != "" {
		id, err := parseId("product_id", raw)
		if err != nil {
			return filter, err
		}
		filter.ProductId = &id
	}

	return filter, nil
}

func parseId(name, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be int", ErrInvalidParam, name)
	}
	if id < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", ErrInvalidParam, name)
	}
	if id > models.MaxId {
		return 0, fmt.Errorf("%w: %s must not exceed %d", ErrInvalidParam, name, models.MaxId)
	}
	return id, nil
}
