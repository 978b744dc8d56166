package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
)

// ShippingFee は州から送料を決める。
// Metro Manila はNCR料金、それ以外はNCR外料金、未選択は0。
func ShippingFee(s model.Settings, province string) decimal.Decimal {
	switch strings.TrimSpace(province) {
	case "":
		return decimal.Zero
	case model.MetroManila:
		return s.DeliveryFeeNCR
	default:
		return s.DeliveryFeeOutsideNCR
	}
}

// GrandTotal = 小計 + 送料
func GrandTotal(subtotal decimal.Decimal, s model.Settings, province string) decimal.Decimal {
	return subtotal.Add(ShippingFee(s, province))
}

// FormatPeso は ₱620.00 の形にする
func FormatPeso(d decimal.Decimal) string {
	return "₱" + d.StringFixed(2)
}
