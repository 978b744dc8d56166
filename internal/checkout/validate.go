package checkout

import "storefront/internal/validator"

// ValidationErrors はフィールド名 -> メッセージ
type ValidationErrors = validator.Errors

// ValidateStep はその段階の必須項目を検証する（サーバーには問い合わせない）。
// ゲストは email も必須。問題なければ空。
func ValidateStep(step Step, d FormData, authenticated bool) ValidationErrors {
	errs := ValidationErrors{}

	switch step {
	case StepCustomerInfo:
		errs.Required("name", d.Name, "Name")
		if !authenticated {
			errs.Email("email", d.Email)
		}
		errs.Required("instagram_username", d.InstagramUsername, "Instagram username")
		errs.Required("address_line1", d.AddressLine1, "Address")
		errs.Required("barangay", d.Barangay, "Barangay")
		errs.Required("city", d.City, "City")
		errs.Required("province", d.Province, "Province")
		errs.Required("mobile_number", d.MobileNumber, "Mobile number")
	case StepPayment:
		if d.PaymentProof == nil || len(d.PaymentProof.Data) == 0 {
			errs["payment_proof"] = "Payment proof is required"
		}
	}
	return errs
}

// ValidateRegistration はアカウント作成サブフォームの検証
func ValidateRegistration(d FormData) ValidationErrors {
	return validator.Registration(d.Name, d.Email, d.Password, d.PasswordConfirmation)
}
