package watcher

import (
	"context"

	"garage-chat/internal/config"
	"garage-chat/internal/docstore"
	"garage-chat/internal/models"
)

const (
	KindRepairCompleted    = "repair_completed"
	KindTestDriveConfirmed = "test_drive_confirmed"
)

// RepairSpecs báo khi lịch sửa chữa chuyển sang "Đã hoàn thành"
func RepairSpecs() []TransitionSpec {
	return []TransitionSpec{{
		Kind:            KindRepairCompleted,
		Field:           "status",
		TriggerValue:    models.RepairStatusCompleted,
		MarkerField:     models.MarkerCompletionNotified,
		Title:           "Lịch sửa chữa hoàn thành!",
		MessageTemplate: "Lịch sửa chữa cho xe {{.carName}} đã hoàn thành.",
	}}
}

// TestDriveSpecs báo khi lịch lái thử được xác nhận
func TestDriveSpecs() []TransitionSpec {
	return []TransitionSpec{{
		Kind:            KindTestDriveConfirmed,
		Field:           "status",
		TriggerValue:    models.TestDriveStatusConfirmed,
		MarkerField:     models.MarkerConfirmationNotified,
		Title:           "Thông báo Lịch Lái Thử",
		MessageTemplate: `Lịch lái thử "{{.productName}}" đã được xác nhận!`,
	}}
}

// UserQuery query các document của một user; uid rỗng = toàn bộ collection
func UserQuery(collection, uid string) docstore.Query {
	q := docstore.Collection(collection)
	if uid != "" {
		q = q.Where("uid", docstore.OpEqual, uid)
	}
	return q
}

// WatchSchedules đăng ký cả lịch sửa chữa và lịch lái thử, trả về một hàm huỷ chung
func (n *Notifier) WatchSchedules(ctx context.Context, cfg config.NotifierConfig, uid string) (docstore.Unsubscribe, error) {
	stopRepair, err := n.Subscribe(ctx, UserQuery(cfg.RepairCollection, uid), RepairSpecs())
	if err != nil {
		return nil, err
	}

	stopTestDrive, err := n.Subscribe(ctx, UserQuery(cfg.TestDriveCollection, uid), TestDriveSpecs())
	if err != nil {
		stopRepair()
		return nil, err
	}

	return func() {
		stopRepair()
		stopTestDrive()
	}, nil
}
