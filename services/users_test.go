package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shootmap/models"
)

func newUserService(f *fixture, now time.Time) *UserService {
	svc := NewUserService(f.stores.Users)
	svc.cost = bcrypt.MinCost
	svc.now = func() time.Time { return now }
	return svc
}

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := jst(2024, 3, 1, 9)
	svc := newUserService(f, now)

	id, err := svc.Create(ctx, NewUser{Username: "jane", Password: "s3cret", DisplayName: "Jane", StoreName: "Shibuya"})
	require.NoError(t, err)
	assert.Equal(t, "1", id)

	row := f.mem.Rows("users")[1]
	assert.NotEqual(t, "s3cret", row[2])

	_, err = svc.Create(ctx, NewUser{Username: "jane", Password: "other"})
	require.ErrorIs(t, err, models.ErrAlreadyExists)

	_, err = svc.Create(ctx, NewUser{Username: "ken"})
	require.ErrorIs(t, err, models.ErrInvalidArgument)

	tcases := map[string]struct {
		username string
		password string
		wantErr  error
	}{
		"ok":             {username: "jane", password: "s3cret"},
		"padded login":   {username: " jane ", password: "s3cret"},
		"wrong password": {username: "jane", password: "nope", wantErr: ErrInvalidCredentials},
		"unknown user":   {username: "ghost", password: "s3cret", wantErr: ErrInvalidCredentials},
	}
	for name, tc := range tcases {
		t.Run(name, func(t *testing.T) {
			u, err := svc.Authenticate(ctx, tc.username, tc.password)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Jane", u.DisplayName)
			require.NotNil(t, u.LastLogin)
			assert.True(t, u.LastLogin.Equal(now))
		})
	}
}

func TestUserService_SetActiveAndChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := newUserService(f, jst(2024, 3, 1, 9))

	id, err := svc.Create(ctx, NewUser{Username: "ken", Password: "first"})
	require.NoError(t, err)

	require.NoError(t, svc.ChangePassword(ctx, id, "second"))
	_, err = svc.Authenticate(ctx, "ken", "first")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "ken", "second")
	require.NoError(t, err)

	u, err := svc.SetActive(ctx, id, false)
	require.NoError(t, err)
	assert.False(t, u.Active)

	_, err = svc.Authenticate(ctx, "ken", "second")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// an inactive login name can be taken again
	_, err = svc.Create(ctx, NewUser{Username: "ken", Password: "third"})
	require.NoError(t, err)
}
