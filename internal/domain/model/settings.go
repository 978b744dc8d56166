package model

import "github.com/shopspring/decimal"

// MetroManila はNCR料金になる州名
const MetroManila = "Metro Manila"

// ショップ設定。説明文はHTMLのまま扱う。
type Settings struct {
	DeliveryFeeNCR            decimal.Decimal `json:"delivery_fee_ncr"`
	DeliveryFeeOutsideNCR     decimal.Decimal `json:"delivery_fee_outside_ncr"`
	FreeDeliveryThreshold     decimal.Decimal `json:"free_delivery_threshold"`
	PaymentOptionsDescription string          `json:"payment_options_description"`
	WhatHappensAfterPayment   string          `json:"what_happens_after_payment"`
}
