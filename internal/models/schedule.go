package models

import (
	"fmt"
	"time"
)

// ===========================================================================
// Lịch hẹn (repairSchedules, testDriveSchedules)
// Trạng thái là chuỗi tiếng Việt tự do, giữ nguyên như dữ liệu trên Firestore
// ===========================================================================

const (
	// Lịch sửa chữa
	RepairStatusPending   = "Chưa hoàn thành"
	RepairStatusCompleted = "Đã hoàn thành"

	// Trạng thái xác nhận của lịch sửa chữa (statusCheck)
	CheckStatusPending   = "Chưa xác nhận"
	CheckStatusConfirmed = "Đã xác nhận"

	// Lịch lái thử
	TestDriveStatusPending   = "Chờ xác nhận"
	TestDriveStatusConfirmed = "Đã xác nhận"

	// Marker: đã gửi thông báo cho transition tương ứng
	MarkerCompletionNotified   = "completionNotified"
	MarkerConfirmationNotified = "confirmationNotified"
)

// RepairSchedule lịch sửa chữa
type RepairSchedule struct {
	ID                 string    `json:"id"`
	UID                string    `json:"uid"`
	UserName           string    `json:"userName"`
	CarName            string    `json:"carName"`
	CarType            string    `json:"carType"`
	Staff              string    `json:"staff"`
	Service            string    `json:"service"`
	Date               time.Time `json:"date"`
	DamageDescription  string    `json:"damageDescription,omitempty"`
	ImageURLs          []string  `json:"imageUrls,omitempty"`
	Status             string    `json:"status"`
	StatusCheck        string    `json:"statusCheck"`
	CompletionNotified bool      `json:"completionNotified"`
}

// IsCompleted lịch đã hoàn thành
func (r *RepairSchedule) IsCompleted() bool {
	return r.Status == RepairStatusCompleted
}

// ParseRepairSchedule chuyển document "repairSchedules" thành RepairSchedule
func ParseRepairSchedule(id string, data map[string]interface{}) (RepairSchedule, error) {
	if id == "" {
		return RepairSchedule{}, fmt.Errorf("parse repair schedule: missing id")
	}
	f := Fields(data)
	r := RepairSchedule{
		ID:                 id,
		UID:                f.String("uid"),
		UserName:           f.String("userName"),
		CarName:            f.String("carName"),
		CarType:            f.String("carType"),
		Staff:              f.String("staff"),
		Service:            f.String("service"),
		DamageDescription:  f.String("damageDescription"),
		ImageURLs:          f.Strings("imageUrls"),
		Status:             f.String("status"),
		StatusCheck:        f.String("statusCheck"),
		CompletionNotified: f.Bool(MarkerCompletionNotified),
	}
	r.Date, _ = f.Time("date")
	return r, nil
}

// TestDriveSchedule lịch lái thử
type TestDriveSchedule struct {
	ID                   string    `json:"id"`
	UID                  string    `json:"uid"`
	UserName             string    `json:"userName"`
	ProductID            string    `json:"productId"`
	ProductName          string    `json:"productName"`
	Date                 time.Time `json:"date"`
	Status               string    `json:"status"`
	ConfirmationNotified bool      `json:"confirmationNotified"`
}

// IsConfirmed lịch lái thử đã được xác nhận
func (t *TestDriveSchedule) IsConfirmed() bool {
	return t.Status == TestDriveStatusConfirmed
}

// ParseTestDriveSchedule chuyển document "testDriveSchedules" thành TestDriveSchedule
func ParseTestDriveSchedule(id string, data map[string]interface{}) (TestDriveSchedule, error) {
	if id == "" {
		return TestDriveSchedule{}, fmt.Errorf("parse test drive schedule: missing id")
	}
	f := Fields(data)
	t := TestDriveSchedule{
		ID:                   id,
		UID:                  f.String("uid"),
		UserName:             f.String("userName"),
		ProductID:            f.String("productId"),
		ProductName:          f.String("productName"),
		Status:               f.String("status"),
		ConfirmationNotified: f.Bool(MarkerConfirmationNotified),
	}
	t.Date, _ = f.Time("date")
	return t, nil
}
