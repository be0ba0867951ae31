package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_MarshalJSON_OmitsPasswordHash(t *testing.T) {
	user := User{
		ID:           1,
		Username:     "alice",
		Email:        sql.NullString{String: "alice@example.com", Valid: true},
		PasswordHash: sql.NullString{String: "secret-hash", Valid: true},
		IsAdmin:      true,
	}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-hash")
	assert.Contains(t, string(data), `"username":"alice"`)
	assert.Contains(t, string(data), `"is_admin":true`)
}

func TestUser_MarshalJSON_NullFields(t *testing.T) {
	user := User{ID: 2, Username: "bob"}

	data, err := json.Marshal(user)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["email"])
	assert.Nil(t, decoded["last_active"])
}

func TestQuestion_OptionsList(t *testing.T) {
	q := Question{Options: sql.NullString{String: "Red,Green, Blue ,", Valid: true}}
	assert.Equal(t, []string{"Red", "Green", "Blue"}, q.OptionsList())

	empty := Question{}
	assert.Empty(t, empty.OptionsList())
}

func TestQuestion_Ownership(t *testing.T) {
	global := Question{}
	assert.True(t, global.IsGlobal())
	assert.True(t, global.OwnedBy(7))

	zeroAssigned := Question{AssignedUserID: sql.NullInt64{Int64: 0, Valid: true}}
	assert.True(t, zeroAssigned.IsGlobal())

	personal := Question{AssignedUserID: sql.NullInt64{Int64: 7, Valid: true}}
	assert.False(t, personal.IsGlobal())
	assert.True(t, personal.OwnedBy(7))
	assert.False(t, personal.OwnedBy(8))
}

func TestQuestion_MarshalJSON_RendersOptionsAsList(t *testing.T) {
	q := Question{
		ID:       1,
		Text:     "How was your day?",
		Type:     QuestionTypeSelect,
		Options:  sql.NullString{String: "Good,Bad", Valid: true},
		Active:   true,
		Category: "General",
	}

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []interface{}{"Good", "Bad"}, decoded["options"])
	assert.Nil(t, decoded["assigned_user_id"])
}

func TestParseOptionsInput(t *testing.T) {
	raw := "- Red\n- Green\nBlue\n\n  - \n"
	assert.Equal(t, "Red,Green,Blue", ParseOptionsInput(raw))
	assert.Equal(t, "", ParseOptionsInput("   \n \n"))
}

func TestQuestionType_Validation(t *testing.T) {
	for _, qt := range AllQuestionTypes() {
		assert.True(t, IsValidQuestionType(string(qt)))
	}
	assert.False(t, IsValidQuestionType("essay"))

	assert.True(t, QuestionTypeSelect.RequiresOptions())
	assert.True(t, QuestionTypeCheckbox.RequiresOptions())
	assert.True(t, QuestionTypeRadio.RequiresOptions())
	assert.False(t, QuestionTypeText.RequiresOptions())
}

func TestDailyActivity_MarshalJSON(t *testing.T) {
	a := DailyActivity{Date: time.Date(2025, 8, 19, 0, 0, 0, 0, time.UTC), Count: 4}
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-08-19","count":4}`, string(data))
}

func TestUserActivitySummary_MarshalJSON(t *testing.T) {
	s := UserActivitySummary{UserID: 1, Username: "alice", ResponseCount: 12}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Nil(t, decoded["last_active"])
	assert.EqualValues(t, 12, decoded["response_count"])
}
