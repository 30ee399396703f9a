// Package handler はaccountフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"account_backend/internal/feature/account/transport/http/dto"
	"account_backend/internal/feature/account/usecase"
)

const (
	OperationRegister       = "register"
	OperationLogin          = "login"
	OperationChangePassword = "change_password"
)

// AccountUsecase はアカウント操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AccountUsecase interface {
	// Register は新規アカウントを登録します。
	Register(ctx context.Context, in usecase.RegisterInput) (usecase.Outcome, error)
	// Login はユーザー名とパスワードを照合します。
	Login(ctx context.Context, username, password string) (usecase.Outcome, error)
	// ChangePassword は現在のパスワードを確認したうえで新しいパスワードに更新します。
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) (usecase.Outcome, error)
}

// OutcomeRecorder は操作結果を集計します。
type OutcomeRecorder interface {
	RecordOutcome(operation, outcome string)
}

type response struct {
	status  int
	message string
}

// internalError は詳細を含めない。原因はログにのみ出力する。
var internalError = response{http.StatusInternalServerError, "Internal Server Error"}

// responses は各Outcomeをただ一つのステータスと本文に対応付けます。
var responses = map[usecase.Outcome]response{
	usecase.OutcomeCreated:                {http.StatusOK, "User created successfully"},
	usecase.OutcomeUserExists:             {http.StatusBadRequest, "User already exists"},
	usecase.OutcomePasswordTooShort:       {http.StatusBadRequest, "Password is too short"},
	usecase.OutcomeLoginOK:                {http.StatusOK, "Login success!"},
	usecase.OutcomeInvalidUser:            {http.StatusBadRequest, "Invalid user"},
	usecase.OutcomeInvalidPassword:        {http.StatusBadRequest, "Invalid password"},
	usecase.OutcomeInvalidCurrentPassword: {http.StatusBadRequest, "Invalid current password"},
	usecase.OutcomePasswordUpdated:        {http.StatusOK, "Password updated"},
	usecase.OutcomeInternalError:          internalError,
}

// AccountHandler はアカウント操作のHTTPリクエストを処理します。
// レスポンスはプレーンテキストで返却します。
type AccountHandler struct {
	accounts AccountUsecase
	metrics  OutcomeRecorder
}

// NewAccountHandler はAccountHandlerの新しいインスタンスを生成します。
// metrics は nil でもよい。
func NewAccountHandler(accounts AccountUsecase, metrics OutcomeRecorder) *AccountHandler {
	return &AccountHandler{accounts: accounts, metrics: metrics}
}

// Register はユーザー登録APIエンドポイントを処理します。
// - JSONを解釈できない、または password が欠落している場合は500を返却
// - それ以外はユースケースの結果に応じたステータスを返却
func (h *AccountHandler) Register(c *gin.Context) {
	var req dto.RegisterReq
	if !h.bind(c, OperationRegister, &req) {
		return
	}
	if req.Password == nil {
		h.malformed(c, OperationRegister, errors.New("password is missing"))
		return
	}
	outcome, err := h.accounts.Register(c.Request.Context(), usecase.RegisterInput{
		Username: req.Username,
		Name:     req.Name,
		Password: *req.Password,
		Gender:   req.Gender,
		Location: req.Location,
	})
	h.respond(c, OperationRegister, req.Username, outcome, err)
}

// Login はログインAPIエンドポイントを処理します。
// password が欠落している場合は500を返却します。
func (h *AccountHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if !h.bind(c, OperationLogin, &req) {
		return
	}
	if req.Password == nil {
		h.malformed(c, OperationLogin, errors.New("password is missing"))
		return
	}
	outcome, err := h.accounts.Login(c.Request.Context(), req.Username, *req.Password)
	h.respond(c, OperationLogin, req.Username, outcome, err)
}

// ChangePassword はパスワード変更APIエンドポイントを処理します。
// oldPassword と newPassword のどちらかが欠落している場合は、ユーザーの検索前に500を返却します。
func (h *AccountHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordReq
	if !h.bind(c, OperationChangePassword, &req) {
		return
	}
	if req.OldPassword == nil || req.NewPassword == nil {
		h.malformed(c, OperationChangePassword, errors.New("oldPassword or newPassword is missing"))
		return
	}
	outcome, err := h.accounts.ChangePassword(c.Request.Context(), req.Username, *req.OldPassword, *req.NewPassword)
	h.respond(c, OperationChangePassword, req.Username, outcome, err)
}

// bind はJSONボディをデコードします。失敗時は汎用の500レスポンスを返却します。
func (h *AccountHandler) bind(c *gin.Context, operation string, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.malformed(c, operation, err)
		return false
	}
	return true
}

// malformed は処理できないリクエストに汎用の500レスポンスを返却します。
func (h *AccountHandler) malformed(c *gin.Context, operation string, err error) {
	slog.Warn("malformed account request", "operation", operation, "error", err, "remote_addr", c.ClientIP())
	h.record(operation, usecase.OutcomeInternalError)
	c.String(internalError.status, internalError.message)
}

func (h *AccountHandler) respond(c *gin.Context, operation, username string, outcome usecase.Outcome, err error) {
	res, ok := responses[outcome]
	if !ok {
		slog.Error("unmapped account outcome", "operation", operation, "outcome", outcome.String())
		outcome, res = usecase.OutcomeInternalError, internalError
	}

	attrs := []any{"operation", operation, "outcome", outcome.String(), "username", username, "remote_addr", c.ClientIP()}
	switch {
	case err != nil || outcome == usecase.OutcomeInternalError:
		slog.Error("account request failed", append(attrs, "error", err)...)
	case outcome.Succeeded():
		slog.Info("account request succeeded", attrs...)
	default:
		slog.Warn("account request rejected", attrs...)
	}

	h.record(operation, outcome)
	c.String(res.status, res.message)
}

func (h *AccountHandler) record(operation string, outcome usecase.Outcome) {
	if h.metrics != nil {
		h.metrics.RecordOutcome(operation, outcome.String())
	}
}
