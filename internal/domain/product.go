package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
}
