package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// サイズごとの在庫（APIが正）
type SizeStock struct {
	Size  string `json:"size"`
	Stock int64  `json:"stock"`
}

// 商品（ストアフロントからは読み取り専用）
type Product struct {
	ID          int64           `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Sizes       []string        `json:"sizes"`
	SizeStock   []SizeStock     `json:"sizeStock"`
	Images      []string        `json:"images"`
}

// StockFor はサイズの在庫数。未登録のサイズは0。
func (p Product) StockFor(size string) int64 {
	for _, s := range p.SizeStock {
		if strings.EqualFold(s.Size, size) {
			return s.Stock
		}
	}
	return 0
}

// IsSoldOut は全サイズ在庫0か
func (p Product) IsSoldOut() bool {
	for _, s := range p.SizeStock {
		if s.Stock > 0 {
			return false
		}
	}
	return true
}

// 商品一覧の検索条件
type ProductQuery struct {
	Page     int
	Limit    int
	Q        string
	Category string
	Sort     string
}

type ProductList struct {
	Items []Product `json:"data"`
	Total int64     `json:"total"`
	Page  int       `json:"current_page"`
	Limit int       `json:"per_page"`
}
