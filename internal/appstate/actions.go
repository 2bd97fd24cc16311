package appstate

import "garage-chat/internal/models"

// Action các sự kiện làm thay đổi State. Interface đóng: chỉ các type
// trong package này implement được.
type Action interface {
	isAction()
}

// LoginSucceeded user đăng nhập (hoặc được khôi phục từ storage)
type LoginSucceeded struct {
	User models.User
}

// LoggedOut user đăng xuất
type LoggedOut struct{}

// VehicleAdded thêm xe vào danh sách
type VehicleAdded struct {
	Vehicle models.Vehicle
}

// VehicleUpdated thay xe có cùng ID
type VehicleUpdated struct {
	Vehicle models.Vehicle
}

// VehicleDeleted xóa xe theo ID
type VehicleDeleted struct {
	ID string
}

// ServicesLoaded snapshot mới của collection services
type ServicesLoaded struct {
	Services []models.Service
}

// StaffLoaded snapshot mới của danh sách nhân viên
type StaffLoaded struct {
	Staff []models.User
}

func (LoginSucceeded) isAction() {}
func (LoggedOut) isAction()      {}
func (VehicleAdded) isAction()   {}
func (VehicleUpdated) isAction() {}
func (VehicleDeleted) isAction() {}
func (ServicesLoaded) isAction() {}
func (StaffLoaded) isAction()    {}
