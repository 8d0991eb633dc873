package service

import (
	"context"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, f *ticketFixture) UserService {
	t.Helper()
	return NewUserService(repository.NewUserRepository(f.db), repository.NewStaffRepository(f.db))
}

func TestCreateUserStaffLinksStaffRecord(t *testing.T) {
	f := newTicketFixture(t)
	users := newUserService(t, f)

	// Staff logins must point at the staff record they perform services as.
	_, err := users.CreateUser(context.Background(), f.salon.ID, CreateUserRequest{
		Name:     "Carla",
		Email:    "carla@studiobela.test",
		Password: "secret1",
		Role:     model.RoleStaff,
	})
	require.Error(t, err)

	created, err := users.CreateUser(context.Background(), f.salon.ID, CreateUserRequest{
		Name:     "Carla",
		Email:    "carla@studiobela.test",
		Password: "secret1",
		Role:     model.RoleStaff,
		StaffID:  f.carla.ID.String(),
	})
	require.NoError(t, err)
	require.NotNil(t, created.StaffID)
	assert.Equal(t, f.carla.ID.String(), *created.StaffID)
	assert.Equal(t, f.salon.ID, created.SalonID)
}

func TestLoginIssuesSalonScopedToken(t *testing.T) {
	f := newTicketFixture(t)
	users := newUserService(t, f)

	_, err := users.CreateUser(context.Background(), f.salon.ID, CreateUserRequest{
		Name:     "Manager",
		Email:    "manager@studiobela.test",
		Password: "secret1",
		Role:     model.RoleManager,
	})
	require.NoError(t, err)

	_, err = users.Login(context.Background(), LoginUserRequest{
		Email:    "manager@studiobela.test",
		Password: "wrong",
	})
	require.Error(t, err)

	tokens, err := users.Login(context.Background(), LoginUserRequest{
		Email:    "manager@studiobela.test",
		Password: "secret1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.Token)
	require.NotEmpty(t, tokens.RefreshToken)

	// The access token carries the role and salon used for scoping.
	parsed, _, err := jwt.NewParser().ParseUnverified(tokens.Token, jwt.MapClaims{})
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, model.RoleManager, claims["role"])
	assert.Equal(t, f.salon.ID.String(), claims["salon_id"])
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newTicketFixture(t)
	users := newUserService(t, f)

	_, err := users.CreateUser(context.Background(), f.salon.ID, CreateUserRequest{
		Name:     "Manager",
		Email:    "manager@studiobela.test",
		Password: "secret1",
		Role:     model.RoleManager,
	})
	require.NoError(t, err)
	tokens, err := users.Login(context.Background(), LoginUserRequest{
		Email:    "manager@studiobela.test",
		Password: "secret1",
	})
	require.NoError(t, err)

	next, err := users.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, next.RefreshToken)

	// The old refresh token is spent.
	_, err = users.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: tokens.RefreshToken})
	require.Error(t, err)

	// Logout revokes the current one.
	require.NoError(t, users.Logout(context.Background(), next.RefreshToken))
	_, err = users.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: next.RefreshToken})
	require.Error(t, err)
}
