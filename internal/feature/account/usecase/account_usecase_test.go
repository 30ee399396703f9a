package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"

	"account_backend/internal/feature/account/domain/entity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockAccountRepository is a mock implementation of the AccountRepository interface.
type mockAccountRepository struct {
	FindByUsernameFunc func(ctx context.Context, username string) (*entity.Account, error)
	InsertFunc         func(ctx context.Context, account *entity.Account) error
	UpdatePasswordFunc func(ctx context.Context, username, digest string) error
}

func (m *mockAccountRepository) FindByUsername(ctx context.Context, username string) (*entity.Account, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, ErrAccountNotFound // Default: absent
}

func (m *mockAccountRepository) Insert(ctx context.Context, account *entity.Account) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, account)
	}
	return nil
}

func (m *mockAccountRepository) UpdatePassword(ctx context.Context, username, digest string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, username, digest)
	}
	return nil
}

// mockHasher is a mock implementation of the PasswordHasher interface.
type mockHasher struct {
	HashFunc   func(password string) (string, error)
	VerifyFunc func(password, digest string) bool
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Verify(password, digest string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(password, digest)
	}
	return digest == "hashed:"+password
}

// memoryRepository is a map-backed AccountRepository used for workflow round trips.
type memoryRepository struct {
	mu       sync.Mutex
	accounts map[string]entity.Account
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{accounts: map[string]entity.Account{}}
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &a, nil
}

func (r *memoryRepository) Insert(_ context.Context, account *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; ok {
		return ErrUsernameTaken
	}
	r.accounts[account.Username] = *account
	return nil
}

func (r *memoryRepository) UpdatePassword(_ context.Context, username, digest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[username]
	if !ok {
		return ErrAccountNotFound
	}
	a.Password = digest
	r.accounts[username] = a
	return nil
}

// bcryptHasher hashes with the minimum cost to keep tests fast.
type bcryptHasher struct{}

func (bcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(b), err
}

func (bcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

func TestNewAccountUsecase_MinPasswordLength(t *testing.T) {
	uc := NewAccountUsecase(&mockAccountRepository{}, &mockHasher{}, 0)
	assert.Equal(t, DefaultMinPasswordLength, uc.minPasswordLength)

	uc = NewAccountUsecase(&mockAccountRepository{}, &mockHasher{}, 8)
	assert.Equal(t, 8, uc.minPasswordLength)
}

func TestAccountUsecase_Register(t *testing.T) {
	existing := &entity.Account{Username: "alice", Password: "hashed:secret1"}
	dbErr := errors.New("database is locked")
	hashErr := errors.New("entropy source unavailable")

	tests := []struct {
		name     string
		repo     *mockAccountRepository
		hasher   *mockHasher
		input    RegisterInput
		expected Outcome
		wantErr  error
	}{
		{
			name: "success: new account",
			repo: &mockAccountRepository{
				InsertFunc: func(_ context.Context, a *entity.Account) error {
					if a.Password != "hashed:secret1" {
						t.Errorf("password was not hashed: %q", a.Password)
					}
					return nil
				},
			},
			input:    RegisterInput{Username: "alice", Name: "Alice A", Password: "secret1", Gender: "f", Location: "NYC"},
			expected: OutcomeCreated,
		},
		{
			name: "failure: username already exists",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return existing, nil },
			},
			input:    RegisterInput{Username: "alice", Password: "secret1"},
			expected: OutcomeUserExists,
		},
		{
			name: "failure: existence check wins over short password",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return existing, nil },
			},
			input:    RegisterInput{Username: "alice", Password: "ab"},
			expected: OutcomeUserExists,
		},
		{
			name:     "failure: password too short",
			repo:     &mockAccountRepository{},
			input:    RegisterInput{Username: "bob", Password: "abcd"},
			expected: OutcomePasswordTooShort,
		},
		{
			name:     "success: password of exactly the minimum length",
			repo:     &mockAccountRepository{},
			input:    RegisterInput{Username: "bob", Password: "abcde"},
			expected: OutcomeCreated,
		},
		{
			name: "failure: lost insert race maps to user exists",
			repo: &mockAccountRepository{
				InsertFunc: func(context.Context, *entity.Account) error { return errors.Wrap(ErrUsernameTaken, "insert") },
			},
			input:    RegisterInput{Username: "carol", Password: "secret1"},
			expected: OutcomeUserExists,
		},
		{
			name: "failure: lookup error",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return nil, dbErr },
			},
			input:    RegisterInput{Username: "dave", Password: "secret1"},
			expected: OutcomeInternalError,
			wantErr:  dbErr,
		},
		{
			name: "failure: insert error",
			repo: &mockAccountRepository{
				InsertFunc: func(context.Context, *entity.Account) error { return dbErr },
			},
			input:    RegisterInput{Username: "erin", Password: "secret1"},
			expected: OutcomeInternalError,
			wantErr:  dbErr,
		},
		{
			name: "failure: hashing error",
			repo: &mockAccountRepository{
				InsertFunc: func(context.Context, *entity.Account) error {
					t.Error("insert must not be called when hashing fails")
					return nil
				},
			},
			hasher: &mockHasher{
				HashFunc: func(string) (string, error) { return "", hashErr },
			},
			input:    RegisterInput{Username: "frank", Password: "secret1"},
			expected: OutcomeInternalError,
			wantErr:  hashErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hasher := tt.hasher
			if hasher == nil {
				hasher = &mockHasher{}
			}
			uc := NewAccountUsecase(tt.repo, hasher, DefaultMinPasswordLength)

			outcome, err := uc.Register(context.Background(), tt.input)

			assert.Equal(t, tt.expected, outcome)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountUsecase_PasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		expected Outcome
	}{
		{"ascii below minimum", "abcd", OutcomePasswordTooShort},
		{"ascii at minimum", "abcde", OutcomeCreated},
		{"accented letters count once each", "ééééé", OutcomeCreated},
		{"four accented letters are too short", "éééé", OutcomePasswordTooShort},
		{"three astral characters are six units", "😀😀😀", OutcomeCreated},
		{"two astral characters are four units", "😀😀", OutcomePasswordTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewAccountUsecase(&mockAccountRepository{}, &mockHasher{}, DefaultMinPasswordLength)

			outcome, err := uc.Register(context.Background(), RegisterInput{Username: "bob", Password: tt.password})

			require.NoError(t, err)
			assert.Equal(t, tt.expected, outcome)
		})
	}
}

func TestAccountUsecase_Login(t *testing.T) {
	account := &entity.Account{Username: "alice", Password: "hashed:secret1"}
	dbErr := errors.New("connection reset")

	tests := []struct {
		name     string
		repo     *mockAccountRepository
		username string
		password string
		expected Outcome
		wantErr  bool
	}{
		{
			name: "success: correct credentials",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return account, nil },
			},
			username: "alice",
			password: "secret1",
			expected: OutcomeLoginOK,
		},
		{
			name:     "failure: unknown user",
			repo:     &mockAccountRepository{},
			username: "nobody",
			password: "secret1",
			expected: OutcomeInvalidUser,
		},
		{
			name: "failure: wrong password",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return account, nil },
			},
			username: "alice",
			password: "wrong",
			expected: OutcomeInvalidPassword,
		},
		{
			name: "success: short password is not rejected at login",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) {
					return &entity.Account{Username: "legacy", Password: "hashed:ab"}, nil
				},
			},
			username: "legacy",
			password: "ab",
			expected: OutcomeLoginOK,
		},
		{
			name: "failure: lookup error",
			repo: &mockAccountRepository{
				FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) { return nil, dbErr },
			},
			username: "alice",
			password: "secret1",
			expected: OutcomeInternalError,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewAccountUsecase(tt.repo, &mockHasher{}, DefaultMinPasswordLength)

			outcome, err := uc.Login(context.Background(), tt.username, tt.password)

			assert.Equal(t, tt.expected, outcome)
			if tt.wantErr {
				assert.ErrorIs(t, err, dbErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountUsecase_ChangePassword(t *testing.T) {
	account := &entity.Account{Username: "alice", Password: "hashed:secret1"}
	found := func(context.Context, string) (*entity.Account, error) { return account, nil }
	dbErr := errors.New("disk I/O error")

	tests := []struct {
		name        string
		repo        *mockAccountRepository
		oldPassword string
		newPassword string
		expected    Outcome
		wantErr     bool
	}{
		{
			name: "success: password rotated",
			repo: &mockAccountRepository{
				FindByUsernameFunc: found,
				UpdatePasswordFunc: func(_ context.Context, username, digest string) error {
					assert.Equal(t, "alice", username)
					assert.Equal(t, "hashed:newpass1", digest)
					return nil
				},
			},
			oldPassword: "secret1",
			newPassword: "newpass1",
			expected:    OutcomePasswordUpdated,
		},
		{
			name:        "failure: unknown user",
			repo:        &mockAccountRepository{},
			oldPassword: "secret1",
			newPassword: "newpass1",
			expected:    OutcomeInvalidUser,
		},
		{
			name:        "failure: wrong current password",
			repo:        &mockAccountRepository{FindByUsernameFunc: found},
			oldPassword: "wrong",
			newPassword: "newpass1",
			expected:    OutcomeInvalidCurrentPassword,
		},
		{
			name:        "failure: wrong current password checked before new length",
			repo:        &mockAccountRepository{FindByUsernameFunc: found},
			oldPassword: "wrong",
			newPassword: "ab",
			expected:    OutcomeInvalidCurrentPassword,
		},
		{
			name: "failure: new password too short",
			repo: &mockAccountRepository{
				FindByUsernameFunc: found,
				UpdatePasswordFunc: func(context.Context, string, string) error {
					t.Error("update must not be called for a short password")
					return nil
				},
			},
			oldPassword: "secret1",
			newPassword: "ab",
			expected:    OutcomePasswordTooShort,
		},
		{
			name: "failure: account removed before update",
			repo: &mockAccountRepository{
				FindByUsernameFunc: found,
				UpdatePasswordFunc: func(context.Context, string, string) error { return ErrAccountNotFound },
			},
			oldPassword: "secret1",
			newPassword: "newpass1",
			expected:    OutcomeInvalidUser,
		},
		{
			name: "failure: update error",
			repo: &mockAccountRepository{
				FindByUsernameFunc: found,
				UpdatePasswordFunc: func(context.Context, string, string) error { return dbErr },
			},
			oldPassword: "secret1",
			newPassword: "newpass1",
			expected:    OutcomeInternalError,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewAccountUsecase(tt.repo, &mockHasher{}, DefaultMinPasswordLength)

			outcome, err := uc.ChangePassword(context.Background(), "alice", tt.oldPassword, tt.newPassword)

			assert.Equal(t, tt.expected, outcome)
			if tt.wantErr {
				assert.ErrorIs(t, err, dbErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccountUsecase_ChangePassword_HashOnlyAfterValidation(t *testing.T) {
	hashCalls := 0
	hasher := &mockHasher{
		HashFunc: func(password string) (string, error) {
			hashCalls++
			return "hashed:" + password, nil
		},
	}
	repo := &mockAccountRepository{
		FindByUsernameFunc: func(context.Context, string) (*entity.Account, error) {
			return &entity.Account{Username: "alice", Password: "hashed:secret1"}, nil
		},
	}
	uc := NewAccountUsecase(repo, hasher, DefaultMinPasswordLength)

	_, _ = uc.ChangePassword(context.Background(), "alice", "wrong", "newpass1")
	_, _ = uc.ChangePassword(context.Background(), "alice", "secret1", "ab")
	assert.Zero(t, hashCalls)

	_, _ = uc.ChangePassword(context.Background(), "alice", "secret1", "newpass1")
	assert.Equal(t, 1, hashCalls)
}

func TestAccountUsecase_Workflow(t *testing.T) {
	ctx := context.Background()
	uc := NewAccountUsecase(newMemoryRepository(), bcryptHasher{}, DefaultMinPasswordLength)

	steps := []struct {
		name     string
		run      func() (Outcome, error)
		expected Outcome
	}{
		{"register alice", func() (Outcome, error) {
			return uc.Register(ctx, RegisterInput{Username: "alice", Name: "Alice A", Password: "secret1", Gender: "f", Location: "NYC"})
		}, OutcomeCreated},
		{"register alice again", func() (Outcome, error) {
			return uc.Register(ctx, RegisterInput{Username: "alice", Name: "Other", Password: "another1"})
		}, OutcomeUserExists},
		{"login wrong password", func() (Outcome, error) { return uc.Login(ctx, "alice", "wrong") }, OutcomeInvalidPassword},
		{"login", func() (Outcome, error) { return uc.Login(ctx, "alice", "secret1") }, OutcomeLoginOK},
		{"change to short password", func() (Outcome, error) { return uc.ChangePassword(ctx, "alice", "secret1", "ab") }, OutcomePasswordTooShort},
		{"change password", func() (Outcome, error) { return uc.ChangePassword(ctx, "alice", "secret1", "newpass1") }, OutcomePasswordUpdated},
		{"login old password", func() (Outcome, error) { return uc.Login(ctx, "alice", "secret1") }, OutcomeInvalidPassword},
		{"login new password", func() (Outcome, error) { return uc.Login(ctx, "alice", "newpass1") }, OutcomeLoginOK},
		{"login unknown user", func() (Outcome, error) { return uc.Login(ctx, "bob", "newpass1") }, OutcomeInvalidUser},
	}

	for _, step := range steps {
		outcome, err := step.run()
		require.NoError(t, err, step.name)
		require.Equal(t, step.expected, outcome, step.name)
	}
}

func TestOutcome_Succeeded(t *testing.T) {
	succeeded := map[Outcome]bool{
		OutcomeCreated:                true,
		OutcomeLoginOK:                true,
		OutcomePasswordUpdated:        true,
		OutcomeUserExists:             false,
		OutcomePasswordTooShort:       false,
		OutcomeInvalidUser:            false,
		OutcomeInvalidPassword:        false,
		OutcomeInvalidCurrentPassword: false,
		OutcomeInternalError:          false,
	}
	for outcome, want := range succeeded {
		assert.Equal(t, want, outcome.Succeeded(), outcome.String())
	}
}
