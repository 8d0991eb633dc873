package service

import (
	"context"
	"testing"

	"salon-backend/internal/model"
	"salon-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBirthDateParsing(t *testing.T) {
	f := newTicketFixture(t)
	clients := NewClientService(repository.NewClientRepository(f.db))

	_, err := clients.CreateClient(context.Background(), f.salon.ID, ClientRequest{
		Name:      "Marina Lopes",
		BirthDate: "15/03/1990",
	})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := clients.CreateClient(context.Background(), f.salon.ID, ClientRequest{
		Name:      "Marina Lopes",
		BirthDate: "1990-03-15",
	})
	require.NoError(t, err)
	require.NotNil(t, created.BirthDate)
	assert.Equal(t, "1990-03-15", *created.BirthDate)
}

func TestClientAccessIsSalonScoped(t *testing.T) {
	f := newTicketFixture(t)
	clients := NewClientService(repository.NewClientRepository(f.db))

	_, err := clients.GetClient(context.Background(), f.otherSalon.ID, f.client.ID)
	assert.ErrorIs(t, err, ErrCatalogNotFound)

	found, err := clients.GetClient(context.Background(), f.salon.ID, f.client.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana Souza", found.Name)
}

func TestStaffServiceAssignments(t *testing.T) {
	f := newTicketFixture(t)
	staff := NewStaffService(repository.NewStaffRepository(f.db), repository.NewServiceRepository(f.db))

	created, err := staff.CreateStaff(context.Background(), f.salon.ID, StaffRequest{
		Name:       "Duda",
		RoleTitle:  "Colorist",
		ServiceIDs: []string{f.haircut.ID.String()},
	})
	require.NoError(t, err)
	require.Len(t, created.Services, 1)
	assert.Equal(t, "Haircut", created.Services[0].Name)

	// Assigning a service that belongs to another salon fails.
	foreign := model.SalonService{SalonID: f.otherSalon.ID, Name: "Massage", IsActive: true}
	require.NoError(t, f.db.Create(&foreign).Error)
	_, err = staff.UpdateStaff(context.Background(), f.salon.ID, mustID(t, created.ID), StaffRequest{
		Name:       "Duda",
		ServiceIDs: []string{foreign.ID.String()},
	})
	assert.ErrorIs(t, err, ErrCatalogNotFound)
}
