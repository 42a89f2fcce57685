package models

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// ProductFilters is the query for GET /products. Zero values are omitted.
type ProductFilters struct {
	Page     int
	Limit    int
	Category string
	Search   string
	Status   ProductStatus
	Location string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

func (f ProductFilters) Values() url.Values {
	q := url.Values{}
	setInt(q, "page", f.Page)
	setInt(q, "limit", f.Limit)
	setString(q, "category", f.Category)
	setString(q, "search", f.Search)
	setString(q, "status", string(f.Status))
	setString(q, "location", f.Location)
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	return q
}

// ListParams pages through order history and the seller's own listings.
type ListParams struct {
	Page   int
	Limit  int
	Status string
}

func (p ListParams) Values() url.Values {
	q := url.Values{}
	setInt(q, "page", p.Page)
	setInt(q, "limit", p.Limit)
	setString(q, "status", p.Status)
	return q
}

func setInt(q url.Values, key string, v int) {
	if v != 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
