package models

// KVItem một cặp key-value cục bộ, tương đương một entry AsyncStorage trên app
type KVItem struct {
	BaseModel

	// Key khóa duy nhất (VD: "messages_<uid>")
	Key string `gorm:"size:255;not null;uniqueIndex" json:"key"`

	// Value chuỗi JSON
	Value string `gorm:"type:text;not null" json:"value"`
}

// TableName trả về tên bảng
func (KVItem) TableName() string {
	return "kv_items"
}
