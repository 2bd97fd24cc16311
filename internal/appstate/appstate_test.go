package appstate

import (
	"testing"

	"garage-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceVehicles(t *testing.T) {
	s := State{}
	s = Reduce(s, VehicleAdded{Vehicle: models.Vehicle{ID: "v1", Name: "Vios"}})
	s = Reduce(s, VehicleAdded{Vehicle: models.Vehicle{ID: "v2", Name: "City"}})
	s = Reduce(s, VehicleUpdated{Vehicle: models.Vehicle{ID: "v1", Name: "Vios G"}})
	require.Len(t, s.Vehicles, 2)
	assert.Equal(t, "Vios G", s.Vehicles[0].Name)

	s = Reduce(s, VehicleUpdated{Vehicle: models.Vehicle{ID: "v3", Name: "Ranger"}})
	assert.Len(t, s.Vehicles, 3)

	s = Reduce(s, VehicleDeleted{ID: "v2"})
	require.Len(t, s.Vehicles, 2)
	assert.Equal(t, "v1", s.Vehicles[0].ID)
	assert.Equal(t, "v3", s.Vehicles[1].ID)
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	before := State{Vehicles: []models.Vehicle{{ID: "v1", Name: "Vios"}}}
	after := Reduce(before, VehicleUpdated{Vehicle: models.Vehicle{ID: "v1", Name: "Altis"}})

	assert.Equal(t, "Vios", before.Vehicles[0].Name)
	assert.Equal(t, "Altis", after.Vehicles[0].Name)
}

func TestReduceLoginLogout(t *testing.T) {
	s := Reduce(State{}, LoginSucceeded{User: models.User{UID: "u1", Email: "an@garage.vn"}})
	require.NotNil(t, s.UserLogin)
	assert.Equal(t, "u1", s.UserLogin.UID)

	s = Reduce(s, VehicleAdded{Vehicle: models.Vehicle{ID: "v1"}})
	s = Reduce(s, LoggedOut{})
	assert.Nil(t, s.UserLogin)
	assert.Empty(t, s.Vehicles)
}

func TestReduceCatalog(t *testing.T) {
	s := Reduce(State{}, ServicesLoaded{Services: []models.Service{{ID: "s1", Name: "Thay dầu"}}})
	s = Reduce(s, StaffLoaded{Staff: []models.User{{UID: "st1", Email: "STAFF01@garage.vn"}}})
	assert.Len(t, s.Services, 1)
	assert.Len(t, s.StaffMembers, 1)
}

func TestStoreSubscribe(t *testing.T) {
	store := NewStore(State{})

	var seen []Action
	unsubscribe := store.Subscribe(func(s State, a Action) {
		seen = append(seen, a)
	})

	store.Dispatch(LoginSucceeded{User: models.User{UID: "u1"}})
	require.NotNil(t, store.CurrentUser())
	assert.Equal(t, "u1", store.CurrentUser().UID)

	unsubscribe()
	store.Dispatch(LoggedOut{})

	assert.Len(t, seen, 1)
	assert.Nil(t, store.CurrentUser())
}

func TestStoreReentrantDispatch(t *testing.T) {
	store := NewStore(State{})
	store.Subscribe(func(s State, a Action) {
		if _, ok := a.(LoginSucceeded); ok {
			store.Dispatch(ServicesLoaded{Services: []models.Service{{ID: "s1"}}})
		}
	})

	store.Dispatch(LoginSucceeded{User: models.User{UID: "u1"}})
	assert.Len(t, store.State().Services, 1)
}
