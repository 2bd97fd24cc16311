package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUser(t *testing.T) {
	u, err := ParseUser("doc-1", map[string]interface{}{
		"username": "an",
		"fullname": "Nguyễn Văn An",
		"email":    "an@example.com",
		"phone":    "+84901234567",
		"isActive": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "doc-1", u.UID, "uid falls back to document id")
	assert.Equal(t, "Nguyễn Văn An", u.FullName)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff())

	staff, err := ParseUser("", map[string]interface{}{"uid": "s1", "email": "STAFF01@garage.vn"})
	require.NoError(t, err)
	assert.True(t, staff.IsStaff())

	_, err = ParseUser("", map[string]interface{}{})
	assert.Error(t, err)
}

func TestParseRepairSchedule(t *testing.T) {
	date := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	r, err := ParseRepairSchedule("r1", map[string]interface{}{
		"uid":                "u1",
		"carName":            "Vios",
		"status":             RepairStatusCompleted,
		"statusCheck":        CheckStatusConfirmed,
		"date":               date,
		"imageUrls":          []interface{}{"a.jpg", 3, "b.jpg"},
		"completionNotified": true,
	})
	require.NoError(t, err)
	assert.True(t, r.IsCompleted())
	assert.True(t, r.CompletionNotified)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, r.ImageURLs)
	assert.True(t, date.Equal(r.Date))
}

func TestParseTestDriveScheduleStringDate(t *testing.T) {
	td, err := ParseTestDriveSchedule("t1", map[string]interface{}{
		"uid":         "u1",
		"productName": "Camry",
		"status":      TestDriveStatusPending,
		"date":        "2024-06-01T09:00:00Z",
	})
	require.NoError(t, err)
	assert.False(t, td.IsConfirmed())
	assert.Equal(t, 9, td.Date.Hour())
}

func TestVehicleFieldsRoundTrip(t *testing.T) {
	v := Vehicle{ID: "v1", OwnerID: "u1", Name: "Xe đi làm", Brand: "Toyota", Km: 12000}
	parsed, err := ParseVehicle(v.ID, v.Fields())
	require.NoError(t, err)
	assert.Equal(t, v, parsed)
}

func TestChatMessageRole(t *testing.T) {
	m := ChatMessage{Text: "hi", IsAdmin: true}
	m.StampRole()
	assert.False(t, m.IsUser)
	assert.Equal(t, RoleStaff, m.Role())

	m = ChatMessage{Text: "hi"}
	m.StampRole()
	assert.True(t, m.IsUser)
	assert.Equal(t, RoleCustomer, m.Role())

	assert.True(t, (&ChatMessage{Text: " \n\t"}).IsBlank())
}

func TestNewOutgoingMessage(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	staff := &User{UID: "s1", FullName: "Thợ Bình", Email: "STAFF02@garage.vn"}

	m := NewOutgoingMessage("xe xong rồi", staff, now)
	assert.True(t, m.IsUser)
	assert.True(t, m.IsAdmin)
	assert.Equal(t, "s1", m.UserID)
	assert.Equal(t, "Thợ Bình", m.UserName)
	assert.True(t, now.Equal(m.SentAt()))
}
