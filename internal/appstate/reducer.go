package appstate

import "garage-chat/internal/models"

// State trạng thái dùng chung của app
type State struct {
	UserLogin    *models.User
	Vehicles     []models.Vehicle
	Services     []models.Service
	StaffMembers []models.User
}

// Reduce trả về State mới, không sửa s. Action lạ giữ nguyên State.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case LoginSucceeded:
		u := act.User
		s.UserLogin = &u

	case LoggedOut:
		s.UserLogin = nil
		s.Vehicles = nil

	case VehicleAdded:
		vehicles := make([]models.Vehicle, len(s.Vehicles), len(s.Vehicles)+1)
		copy(vehicles, s.Vehicles)
		s.Vehicles = append(vehicles, act.Vehicle)

	case VehicleUpdated:
		vehicles := make([]models.Vehicle, 0, len(s.Vehicles)+1)
		replaced := false
		for _, v := range s.Vehicles {
			if v.ID == act.Vehicle.ID {
				v = act.Vehicle
				replaced = true
			}
			vehicles = append(vehicles, v)
		}
		if !replaced {
			vehicles = append(vehicles, act.Vehicle)
		}
		s.Vehicles = vehicles

	case VehicleDeleted:
		vehicles := make([]models.Vehicle, 0, len(s.Vehicles))
		for _, v := range s.Vehicles {
			if v.ID != act.ID {
				vehicles = append(vehicles, v)
			}
		}
		s.Vehicles = vehicles

	case ServicesLoaded:
		s.Services = append([]models.Service(nil), act.Services...)

	case StaffLoaded:
		s.StaffMembers = append([]models.User(nil), act.Staff...)
	}
	return s
}
