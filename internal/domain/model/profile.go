package model

// 配送先などのプロフィール（会員・ゲスト共通）
type Profile struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	InstagramUsername string `json:"instagram_username"`
	AddressLine1      string `json:"address_line1"`
	Barangay          string `json:"barangay"`
	City              string `json:"city"`
	Province          string `json:"province"`
	MobileNumber      string `json:"mobile_number"`
}

// 住所プルダウンの選択肢
type AddressOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
