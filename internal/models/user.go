package models

import (
	"fmt"
	"strings"
)

// ===========================================================================
// User (Người dùng app)
// Document trong collection "users", id = uid của Firebase Auth.
// Nhân viên được nhận diện bằng email bắt đầu bằng "STAFF".
// ===========================================================================

const (
	// UsersCollection collection hồ sơ người dùng
	UsersCollection = "users"

	// StaffEmailPrefix tiền tố email của tài khoản nhân viên
	StaffEmailPrefix = "STAFF"
)

// User hồ sơ người dùng
type User struct {
	UID      string `json:"uid"`
	UserName string `json:"username"`
	FullName string `json:"fullname"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Email    string `json:"email"`
	IsActive bool   `json:"isActive"`

	// FCMToken token push của thiết bị đăng nhập gần nhất
	FCMToken string `json:"fcmToken,omitempty"`
}

// IsStaff kiểm tra tài khoản nhân viên
func (u *User) IsStaff() bool {
	return strings.HasPrefix(u.Email, StaffEmailPrefix)
}

// ParseUser chuyển document "users" thành User
func ParseUser(id string, data map[string]interface{}) (User, error) {
	f := Fields(data)
	u := User{
		UID:      f.String("uid"),
		UserName: f.String("username"),
		FullName: f.String("fullname"),
		Phone:    f.String("phone"),
		Address:  f.String("address"),
		Email:    f.String("email"),
		IsActive: f.Bool("isActive"),
		FCMToken: f.String("fcmToken"),
	}
	if u.UID == "" {
		u.UID = id
	}
	if u.UID == "" {
		return User{}, fmt.Errorf("parse user: missing uid")
	}
	return u, nil
}
