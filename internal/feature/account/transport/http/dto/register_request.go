// Package dto はaccountフィーチャーのHTTPリクエストボディを定義します。
package dto

// RegisterReq は POST /register のリクエストボディ。
// パスワード系のフィールドはポインタで受け、欠落と null を nil として区別する。
type RegisterReq struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	Password *string `json:"password"`
	Gender   string  `json:"gender"`
	Location string  `json:"location"`
}
