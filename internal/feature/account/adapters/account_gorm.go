// Package adapters はaccountフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"account_backend/internal/feature/account/domain/entity"
	"account_backend/internal/feature/account/usecase"
)

// accountGorm はAccountRepositoryインターフェースのGORM実装です。
// sqlite と postgres の両方のダイアレクタで動作します。
type accountGorm struct {
	db *gorm.DB
}

// accountGormがAccountRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.AccountRepository = (*accountGorm)(nil)

// NewAccountGorm は指定されたgorm.DB接続でaccountGormの新しいインスタンスを生成します。
func NewAccountGorm(db *gorm.DB) *accountGorm {
	return &accountGorm{db: db}
}

// FindByUsername はユーザー名でアカウントを検索します。
// 該当する行がない場合は usecase.ErrAccountNotFound を返します。
func (r *accountGorm) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	var a entity.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrAccountNotFound
		}
		return nil, errors.Wrap(err, "failed to find account by username")
	}
	return &a, nil
}

// Insert はアカウントをデータベースに追加します。
// ユーザー名が既に存在する場合は usecase.ErrUsernameTaken を返します。
func (r *accountGorm) Insert(ctx context.Context, a *entity.Account) error {
	if a == nil {
		return errors.New("account is nil")
	}
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return usecase.ErrUsernameTaken
		}
		return errors.Wrap(err, "failed to insert account")
	}
	return nil
}

// UpdatePassword は保存済みのパスワードハッシュを置き換えます。
// 更新された行がない場合は usecase.ErrAccountNotFound を返します。
func (r *accountGorm) UpdatePassword(ctx context.Context, username, digest string) error {
	res := r.db.WithContext(ctx).
		Model(&entity.Account{}).
		Where("username = ?", username).
		Update("password", digest)
	if res.Error != nil {
		return errors.Wrap(res.Error, "failed to update password")
	}
	if res.RowsAffected == 0 {
		return usecase.ErrAccountNotFound
	}
	return nil
}
