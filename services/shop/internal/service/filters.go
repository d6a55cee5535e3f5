package service

import (
	"net/url"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
)

func ProductFilterFromQuery(v url.Values) (query.ProductFilter, error) {
	f, err := query.ParseProductFilter(v)
	return f, fromFilterError(err)
}

func OrderFilterFromQuery(v url.Values) (query.OrderFilter, error) {
	f, err := query.ParseOrderFilter(v)
	return f, fromFilterError(err)
}
