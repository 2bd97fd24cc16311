package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===========================================================================
// BaseModel là struct cơ sở cho các bảng lưu cục bộ (gorm)
// Không dùng default của postgres (gen_random_uuid, now()) để chạy được cả sqlite
// ===========================================================================

// BaseModel chứa các trường chung
type BaseModel struct {
	// ID primary key dạng UUID, sinh ở BeforeCreate
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// CreatedAt thời điểm tạo record
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// UpdatedAt thời điểm cập nhật gần nhất
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate tự động generate UUID nếu chưa có
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
