// Package entity はaccountフィーチャーのドメインエンティティを定義します。
package entity

// Account は登録済みのユーザーアカウントを表します。
// "user" テーブルに対応します。
type Account struct {
	// Username はアカウントの一意な識別子で、作成後は変更されません。
	Username string `gorm:"primaryKey;size:255" json:"username"`

	// Name は表示名です。
	Name string `gorm:"size:255" json:"name"`

	// Password はbcryptによるソルト付きハッシュで、平文は保持しません。
	Password string `gorm:"size:255;not null" json:"password"`

	Gender   string `gorm:"size:64" json:"gender"`
	Location string `gorm:"size:255" json:"location"`
}

// TableName はGORMの複数形の既定名ではなく "user" をテーブル名として返します。
func (Account) TableName() string {
	return "user"
}
