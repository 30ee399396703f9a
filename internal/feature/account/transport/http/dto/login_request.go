package dto

// LoginReq は POST /login のリクエストボディ。
type LoginReq struct {
	Username string  `json:"username"`
	Password *string `json:"password"`
}
