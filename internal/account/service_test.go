package account

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepoutside/storefront/internal/kvstore"
)

const testKey = "so-users"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func registerDto() CreateUserDto {
	return CreateUserDto{
		FirstName:  "John",
		LastName:   "Doe",
		Email:      "john.doe@example.com",
		Phone:      "801-555-0100",
		Password:   "correct-horse",
		Newsletter: true,
	}
}

func Test_Service_Register(t *testing.T) {
	// given
	svc := NewService(kvstore.NewMemoryStore(), testKey, discardLogger())

	// when
	user, token, err := svc.Register(context.Background(), registerDto())

	// then
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	assert.Equal(t, "John", user.FirstName)
	assert.Equal(t, "john.doe@example.com", user.Email)
	assert.True(t, user.Newsletter)
	assert.False(t, user.CreatedAt.IsZero())
}

func Test_Service_Register_EmailTaken(t *testing.T) {
	// given
	svc := NewService(kvstore.NewMemoryStore(), testKey, discardLogger())
	_, _, err := svc.Register(context.Background(), registerDto())
	require.NoError(t, err)

	// when the same email is registered again, case and whitespace ignored
	dto := registerDto()
	dto.Email = "  John.Doe@Example.COM "
	_, _, err = svc.Register(context.Background(), dto)

	// then
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func Test_Service_Login(t *testing.T) {
	testCases := []struct {
		name      string
		email     string
		password  string
		expectErr error
	}{
		{
			name:     "success",
			email:    "john.doe@example.com",
			password: "correct-horse",
		},
		{
			name:     "success with different email casing",
			email:    "John.Doe@EXAMPLE.com",
			password: "correct-horse",
		},
		{
			name:      "wrong password",
			email:     "john.doe@example.com",
			password:  "wrong-horse",
			expectErr: ErrInvalidCredentials,
		},
		{
			name:      "unknown email",
			email:     "nobody@example.com",
			password:  "correct-horse",
			expectErr: ErrInvalidCredentials,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			svc := NewService(kvstore.NewMemoryStore(), testKey, discardLogger())
			registered, _, err := svc.Register(context.Background(), registerDto())
			require.NoError(t, err)

			// when
			user, token, err := svc.Login(context.Background(), tc.email, tc.password)

			// then
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registered.ID, user.ID)
			assert.NotEmpty(t, token)
		})
	}
}

func Test_Service_UpdateProfile(t *testing.T) {
	// given
	svc := NewService(kvstore.NewMemoryStore(), testKey, discardLogger())
	registered, _, err := svc.Register(context.Background(), registerDto())
	require.NoError(t, err)

	newPhone := "801-555-0199"
	newsletter := false

	// when
	updated, err := svc.UpdateProfile(context.Background(), registered.ID, UpdateProfileDto{
		Phone:      &newPhone,
		Newsletter: &newsletter,
	})

	// then only the provided fields change
	require.NoError(t, err)
	assert.Equal(t, "John", updated.FirstName)
	assert.Equal(t, newPhone, updated.Phone)
	assert.False(t, updated.Newsletter)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
}

func Test_Service_UpdateProfile_UnknownUser(t *testing.T) {
	// given
	svc := NewService(kvstore.NewMemoryStore(), testKey, discardLogger())

	// when
	name := "Jane"
	_, err := svc.UpdateProfile(context.Background(), "no-such-id", UpdateProfileDto{FirstName: &name})

	// then
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func Test_Service_PersistsAcrossRestarts(t *testing.T) {
	// given
	kv := kvstore.NewMemoryStore()
	first := NewService(kv, testKey, discardLogger())
	_, _, err := first.Register(context.Background(), registerDto())
	require.NoError(t, err)

	// when a fresh service loads from the same backing entry
	second := NewService(kv, testKey, discardLogger())
	user, _, err := second.Login(context.Background(), "john.doe@example.com", "correct-horse")

	// then
	require.NoError(t, err)
	assert.Equal(t, "John", user.FirstName)
}

func Test_Service_CorruptPersistedState(t *testing.T) {
	// given
	kv := kvstore.NewMemoryStore()
	require.NoError(t, kv.Set(context.Background(), testKey, "not-json{{{"))
	svc := NewService(kv, testKey, discardLogger())

	// when / then registration still works on a clean slate
	_, _, err := svc.Register(context.Background(), registerDto())
	assert.NoError(t, err)
}

func Test_Service_PasswordNeverStoredInPlain(t *testing.T) {
	// given
	kv := kvstore.NewMemoryStore()
	svc := NewService(kv, testKey, discardLogger())
	_, _, err := svc.Register(context.Background(), registerDto())
	require.NoError(t, err)

	// when
	raw, ok, err := kv.Get(context.Background(), testKey)

	// then
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "correct-horse")
	assert.NotContains(t, raw, `"password"`)
}
