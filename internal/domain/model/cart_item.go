package model

import "github.com/shopspring/decimal"

// カートの明細（サーバーのミラー）
// IDはサーバーが採番するので追加前は0
type CartItem struct {
	ID       int64   `json:"id,omitempty"`
	Product  Product `json:"product"`
	Size     string  `json:"size"`
	Quantity int64   `json:"quantity"`
}

// LineTotal は単価×数量
func (i CartItem) LineTotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(i.Quantity))
}
