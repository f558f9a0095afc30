package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"api_pos/internal/apperr"
	"api_pos/internal/database/dbtest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(NewSQLStorage(dbtest.New(t)), zaptest.NewLogger(t))
	svc.cost = bcrypt.MinCost
	return svc
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "12345678", "secreto", RoleSeller)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.NotEqual(t, "secreto", created.PasswordHash)

	u, err := svc.Login(ctx, " 12345678 ", "secreto")
	require.NoError(t, err)
	assert.Equal(t, created.ID, u.ID)
	assert.Equal(t, RoleSeller, u.Role)
}

func TestService_LoginFailuresLookAlike(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "clave", RoleAdmin)
	require.NoError(t, err)

	for _, tc := range []struct{ name, user, password string }{
		{"unknown user", "x", "wrong"},
		{"wrong password", "admin", "wrong"},
		{"empty password", "admin", ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.user, tc.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Equal(t, "Credenciales inválidas", apperr.Message(err))
		})
	}
}

func TestService_RegisterRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "admin", "clave", RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Register(ctx, "admin", "otra", RoleAdmin)
	assert.ErrorIs(t, err, ErrDuplicateName)

	_, err = svc.Register(ctx, "nuevo", "clave", "")
	assert.ErrorIs(t, err, ErrRoleRequired)
}
