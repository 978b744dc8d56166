package checkout

import "strings"

// FormMode はモーダルの表示モード
type FormMode string

const (
	ModeInitial  FormMode = "initial"
	ModeRegister FormMode = "register"
	ModeCheckout FormMode = "checkout"
)

// Step はチェックアウトの段階（1: 顧客情報 2: 支払い証明 3: 確認）
type Step int

const (
	StepCustomerInfo Step = 1
	StepPayment      Step = 2
	StepConfirm      Step = 3
)

// PaymentProof はアップロードされた支払い証明
type PaymentProof struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FormData はモーダルを開いている間だけの入力。保存しない。
type FormData struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
	InstagramUsername    string
	AddressLine1         string
	Barangay             string
	Province             string
	City                 string
	MobileNumber         string
	PaymentProof         *PaymentProof
}

// FormPatch はPATCHで送られる部分更新。
// 住所（州・市・バランガイ）は Select* からだけ変える。
type FormPatch struct {
	Name                 *string `json:"name"`
	Email                *string `json:"email"`
	Password             *string `json:"password"`
	PasswordConfirmation *string `json:"password_confirmation"`
	InstagramUsername    *string `json:"instagram_username"`
	AddressLine1         *string `json:"address_line1"`
	MobileNumber         *string `json:"mobile_number"`
}

func (p FormPatch) apply(d *FormData) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&d.Name, p.Name)
	set(&d.Email, p.Email)
	set(&d.Password, p.Password)
	set(&d.PasswordConfirmation, p.PasswordConfirmation)
	set(&d.InstagramUsername, p.InstagramUsername)
	set(&d.AddressLine1, p.AddressLine1)
	set(&d.MobileNumber, p.MobileNumber)
}

// FormView は画面に返す形（パスワードとファイル本体は返さない）
type FormView struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	InstagramUsername string `json:"instagram_username"`
	AddressLine1      string `json:"address_line1"`
	Barangay          string `json:"barangay"`
	Province          string `json:"province"`
	City              string `json:"city"`
	MobileNumber      string `json:"mobile_number"`
	PaymentProofName  string `json:"payment_proof_name,omitempty"`
}

func (d FormData) view() FormView {
	v := FormView{
		Name:              d.Name,
		Email:             d.Email,
		InstagramUsername: d.InstagramUsername,
		AddressLine1:      d.AddressLine1,
		Barangay:          d.Barangay,
		Province:          d.Province,
		City:              d.City,
		MobileNumber:      d.MobileNumber,
	}
	if d.PaymentProof != nil {
		v.PaymentProofName = d.PaymentProof.Filename
	}
	return v
}

// trimmed は送信前に前後の空白を落とす
func (d FormData) trimmed() FormData {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	d.InstagramUsername = strings.TrimSpace(d.InstagramUsername)
	d.AddressLine1 = strings.TrimSpace(d.AddressLine1)
	d.MobileNumber = strings.TrimSpace(d.MobileNumber)
	return d
}
