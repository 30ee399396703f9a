package dto

// ChangePasswordReq は PUT /change-password のリクエストボディ。
type ChangePasswordReq struct {
	Username    string  `json:"username"`
	OldPassword *string `json:"oldPassword"`
	NewPassword *string `json:"newPassword"`
}
