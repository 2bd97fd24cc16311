package models

// AllModels trả về danh sách models cho database.AutoMigrate()
func AllModels() []interface{} {
	return []interface{}{
		&KVItem{}, // key-value cục bộ (messages_<uid>, user, fcmToken)
	}
}
