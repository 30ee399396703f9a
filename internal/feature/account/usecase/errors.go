// Package usecase はaccountフィーチャーのビジネスロジックを実装します。
package usecase

import "github.com/pkg/errors"

var (
	// ErrAccountNotFound はユーザー名に一致するアカウントがない場合にリポジトリが返します。
	// ユースケースでは失敗ではなく「存在しない」分岐として扱います。
	ErrAccountNotFound = errors.New("account not found")

	// ErrUsernameTaken は既存のユーザー名を挿入しようとした場合にリポジトリが返します。
	ErrUsernameTaken = errors.New("username already exists")
)
