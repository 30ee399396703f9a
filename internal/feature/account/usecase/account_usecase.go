package usecase

import (
	"context"
	"unicode/utf16"

	"github.com/pkg/errors"

	"account_backend/internal/feature/account/domain/entity"
)

const (
	// DefaultMinPasswordLength は新しいパスワードに必要な最小長（UTF-16コード単位）です。
	DefaultMinPasswordLength = 5
)

// AccountRepository はアカウントエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type AccountRepository interface {
	// FindByUsername は指定されたユーザー名のアカウントを返します。
	// 存在しない場合は ErrAccountNotFound を返します。
	FindByUsername(ctx context.Context, username string) (*entity.Account, error)

	// Insert は新しいアカウントを保存します。
	// ユーザー名が既に存在する場合は ErrUsernameTaken を返します。
	Insert(ctx context.Context, account *entity.Account) error

	// UpdatePassword は既存アカウントのパスワードハッシュを置き換えます。
	// ユーザー名が存在しない場合は ErrAccountNotFound を返します。
	UpdatePassword(ctx context.Context, username, digest string) error
}

// PasswordHasher はソルト付き一方向ハッシュの生成と照合を行います。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// RegisterInput はユーザー登録リクエストの入力値です。
type RegisterInput struct {
	Username string
	Name     string
	Password string
	Gender   string
	Location string
}

// accountUsecase はユーザー登録・ログイン・パスワード変更のビジネスロジックを実装します。
type accountUsecase struct {
	accounts          AccountRepository
	hasher            PasswordHasher
	minPasswordLength int
}

// NewAccountUsecase はaccountUsecaseの新しいインスタンスを生成します。
// minPasswordLength が0以下の場合は DefaultMinPasswordLength を使用します。
func NewAccountUsecase(accounts AccountRepository, hasher PasswordHasher, minPasswordLength int) *accountUsecase {
	if minPasswordLength <= 0 {
		minPasswordLength = DefaultMinPasswordLength
	}
	return &accountUsecase{
		accounts:          accounts,
		hasher:            hasher,
		minPasswordLength: minPasswordLength,
	}
}

// Register は新規アカウントを登録します。
// 存在確認は長さチェックより先に行うため、パスワードが短くても
// ユーザー名が重複していれば OutcomeUserExists を返します。
func (u *accountUsecase) Register(ctx context.Context, in RegisterInput) (Outcome, error) {
	existing, err := u.find(ctx, in.Username)
	if err != nil {
		return OutcomeInternalError, err
	}
	if existing != nil {
		return OutcomeUserExists, nil
	}

	if !u.longEnough(in.Password) {
		return OutcomePasswordTooShort, nil
	}

	digest, err := u.hasher.Hash(in.Password)
	if err != nil {
		return OutcomeInternalError, errors.Wrap(err, "failed to hash password")
	}

	account := &entity.Account{
		Username: in.Username,
		Name:     in.Name,
		Password: digest,
		Gender:   in.Gender,
		Location: in.Location,
	}
	if err := u.accounts.Insert(ctx, account); err != nil {
		// 検索と挿入の間に同名の登録が先に完了した
		if errors.Is(err, ErrUsernameTaken) {
			return OutcomeUserExists, nil
		}
		return OutcomeInternalError, errors.Wrap(err, "failed to insert account")
	}
	return OutcomeCreated, nil
}

// Login はユーザー名とパスワードを保存済みハッシュと照合します。
func (u *accountUsecase) Login(ctx context.Context, username, password string) (Outcome, error) {
	account, err := u.find(ctx, username)
	if err != nil {
		return OutcomeInternalError, err
	}
	if account == nil {
		return OutcomeInvalidUser, nil
	}

	if !u.hasher.Verify(password, account.Password) {
		return OutcomeInvalidPassword, nil
	}
	return OutcomeLoginOK, nil
}

// ChangePassword は現在のパスワードを確認したうえでパスワードを更新します。
// 新しいパスワードのハッシュ化はすべてのチェックを通過した後に行います。
func (u *accountUsecase) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) (Outcome, error) {
	account, err := u.find(ctx, username)
	if err != nil {
		return OutcomeInternalError, err
	}
	if account == nil {
		return OutcomeInvalidUser, nil
	}

	if !u.hasher.Verify(oldPassword, account.Password) {
		return OutcomeInvalidCurrentPassword, nil
	}

	if !u.longEnough(newPassword) {
		return OutcomePasswordTooShort, nil
	}

	digest, err := u.hasher.Hash(newPassword)
	if err != nil {
		return OutcomeInternalError, errors.Wrap(err, "failed to hash password")
	}

	if err := u.accounts.UpdatePassword(ctx, username, digest); err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return OutcomeInvalidUser, nil
		}
		return OutcomeInternalError, errors.Wrap(err, "failed to update password")
	}
	return OutcomePasswordUpdated, nil
}

// find はアカウントを検索します。存在しない場合は (nil, nil) を返します。
func (u *accountUsecase) find(ctx context.Context, username string) (*entity.Account, error) {
	account, err := u.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find account")
	}
	return account, nil
}

// longEnough は長さをUTF-16コード単位で数えます。
// 基本多言語面の外の文字（絵文字など）は2と数えます。
func (u *accountUsecase) longEnough(password string) bool {
	n := 0
	for _, r := range password {
		n += utf16.RuneLen(r)
	}
	return n >= u.minPasswordLength
}
