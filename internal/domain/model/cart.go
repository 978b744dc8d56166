package model

import "github.com/shopspring/decimal"

// Cart はサーバーが返した明細一覧そのもの。
// ローカルで変更後の状態を計算しない。
type Cart struct {
	Items []CartItem `json:"items"`
}

// TotalItems は数量の合計
func (c Cart) TotalItems() int64 {
	var n int64
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// Subtotal は送料を含まない合計
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Contains は同じ商品・サイズがあるか。sizeが空なら商品だけで判定。
func (c Cart) Contains(productID int64, size string) bool {
	for _, it := range c.Items {
		if it.Product.ID != productID {
			continue
		}
		if size == "" || it.Size == size {
			return true
		}
	}
	return false
}

// IsEmpty
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
