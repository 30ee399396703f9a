package usecase

// Outcome はアカウント操作の結果を分類します。
// 各操作は必ずただ一つのOutcomeで終わり、トランスポート層がレスポンスに変換します。
type Outcome string

const (
	OutcomeCreated                Outcome = "created"
	OutcomeUserExists             Outcome = "user_exists"
	OutcomePasswordTooShort       Outcome = "password_too_short"
	OutcomeLoginOK                Outcome = "login_ok"
	OutcomeInvalidUser            Outcome = "invalid_user"
	OutcomeInvalidPassword        Outcome = "invalid_password"
	OutcomeInvalidCurrentPassword Outcome = "invalid_current_password"
	OutcomePasswordUpdated        Outcome = "password_updated"
	OutcomeInternalError          Outcome = "internal_error"
)

// String はログ項目やメトリクスのラベルに使う識別子を返します。
func (o Outcome) String() string {
	return string(o)
}

// Succeeded は操作が完了したことを表すOutcomeかどうかを返します。
func (o Outcome) Succeeded() bool {
	switch o {
	case OutcomeCreated, OutcomeLoginOK, OutcomePasswordUpdated:
		return true
	default:
		return false
	}
}
