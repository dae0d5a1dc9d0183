package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Accessors(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","amount":12.5,"active":false,"nested":{"k":"v"}}`), &r))

	assert.Equal(t, "a", r.ID())
	n, ok := r.Number("amount")
	assert.True(t, ok)
	assert.Equal(t, 12.5, n)
	assert.False(t, r.Bool("active", true))
	assert.True(t, r.Bool("missing", true))
	assert.Equal(t, "v", r.Object("nested").String("k"))
	assert.Nil(t, r.Object("amount"))
}

func TestRecord_MergeIsShallow(t *testing.T) {
	r := Record{"id": "1", "phone": "111", "address": map[string]interface{}{"city": "A", "zip": "1"}}
	r.Merge(Record{"phone": "222", "address": map[string]interface{}{"city": "B"}})

	assert.Equal(t, "1", r.ID())
	assert.Equal(t, "222", r.String("phone"))
	assert.Equal(t, map[string]interface{}{"city": "B"}, r["address"])
}

func TestRecord_WithoutDoesNotMutate(t *testing.T) {
	r := Record{"id": "1", "password_hash": "x"}
	out := r.Without("password_hash")

	assert.NotContains(t, out, "password_hash")
	assert.Contains(t, r, "password_hash")
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 6000, time.UTC)
	got, err := ParseTimestamp(Timestamp(now))
	require.NoError(t, err)
	assert.True(t, now.Equal(got))

	legacy, err := ParseTimestamp("2024-05-01T10:20:30.123456")
	require.NoError(t, err)
	assert.Equal(t, 2024, legacy.Year())

	_, err = ParseTimestamp("yesterday")
	assert.Error(t, err)
}

func TestNotificationSettingsFrom(t *testing.T) {
	s := DefaultSettings()
	assert.False(t, NotificationSettingsFrom(s).Ready())

	s.Object("whatsapp")["enabled"] = true
	assert.False(t, NotificationSettingsFrom(s).Ready(), "missing api key")

	s.Object("whatsapp")["api_key"] = "k"
	assert.True(t, NotificationSettingsFrom(s).Ready())

	s.Object("features")["whatsapp_notifications"] = false
	assert.False(t, NotificationSettingsFrom(s).Ready())
}

func TestUser_Public(t *testing.T) {
	u := User{Record{"id": "1", "username": "a", "password_hash": "h", "password": "legacy"}}
	pub := u.Public()

	assert.NotContains(t, pub, "password_hash")
	assert.NotContains(t, pub, "password")
	assert.Equal(t, "h", u.PasswordHash())
	assert.True(t, u.Active())
}
