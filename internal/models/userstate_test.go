package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUserState(t *testing.T) {
	s := DefaultUserState()

	assert.Equal(t, DefaultUsername, s.Username)
	assert.Nil(t, s.Email)
	assert.Zero(t, s.XP)
	assert.Zero(t, s.Coins)
	assert.Zero(t, s.Gems)
	assert.Zero(t, s.TestsTaken)
	assert.Empty(t, s.TestHistory)
	assert.Empty(t, s.DaysActive)
	assert.Zero(t, s.TokenBalance)
	assert.Equal(t, "", s.QubicIdentity)
	assert.False(t, s.AuthPwSalt != "" || s.AuthPwHash != "")
}

func TestUserState_MarshalEmptyCollections(t *testing.T) {
	raw, err := json.Marshal(DefaultUserState())
	require.NoError(t, err)

	out := string(raw)
	assert.Contains(t, out, `"test_history":[]`)
	assert.Contains(t, out, `"daily_tasks_done":{}`)
	assert.Contains(t, out, `"email":null`)
	// password triple absent until set
	assert.NotContains(t, out, "auth_pw_salt")
}

func TestUserState_KeyOrderMatchesSchema(t *testing.T) {
	raw, err := json.Marshal(DefaultUserState())
	require.NoError(t, err)

	out := string(raw)
	order := []string{
		`"username"`, `"email"`, `"xp"`, `"coins"`, `"gems"`,
		`"tests_taken"`, `"test_history"`, `"xp_events"`, `"days_active"`,
		`"daily_tasks_done"`, `"token_balance"`, `"token_trades"`,
		`"qubic_identity"`, `"qubic_tick_history"`, `"qubic_price_history"`,
		`"ai_chat_history"`,
	}
	last := -1
	for _, key := range order {
		idx := strings.Index(out, key)
		require.GreaterOrEqual(t, idx, 0, "missing key %s", key)
		assert.Greater(t, idx, last, "key %s out of order", key)
		last = idx
	}
}

func TestMerge_DefaultsForMissingKeys(t *testing.T) {
	s, err := Merge([]byte(`{"username":"miguel","xp":1500}`))
	require.NoError(t, err)

	assert.Equal(t, "miguel", s.Username)
	assert.Equal(t, 1500, s.XP)
	assert.Zero(t, s.Coins)
	assert.NotNil(t, s.TestHistory)
	assert.NotNil(t, s.DailyTasksDone)
}

func TestMerge_WrongTypedFieldHealed(t *testing.T) {
	s, err := Merge([]byte(`{"username":"miguel","xp":1500,"ai_chat_history":{"oops":1}}`))
	require.NoError(t, err)

	assert.Equal(t, "miguel", s.Username)
	assert.Equal(t, 1500, s.XP)
	assert.Empty(t, s.AIChatHistory)
	assert.NotNil(t, s.AIChatHistory)
}

func TestMerge_MultipleWrongTypedFieldsHealed(t *testing.T) {
	in := []byte(`{
		"username": {"bad": true},
		"xp": "lots",
		"coins": 42,
		"daily_tasks_done": ["a", "b"],
		"days_active": ["2025-03-10"]
	}`)
	s, err := Merge(in)
	require.NoError(t, err)

	assert.Equal(t, DefaultUsername, s.Username)
	assert.Zero(t, s.XP)
	assert.Equal(t, 42, s.Coins)
	assert.NotNil(t, s.DailyTasksDone)
	assert.Empty(t, s.DailyTasksDone)
	assert.Equal(t, []string{"2025-03-10"}, s.DaysActive)
}

func TestMerge_WrongTypedElementDropsCollection(t *testing.T) {
	s, err := Merge([]byte(`{"xp":100,"test_history":[{"timestamp":123}]}`))
	require.NoError(t, err)

	assert.Equal(t, 100, s.XP)
	assert.Empty(t, s.TestHistory)
}

func TestMerge_NonObjectFails(t *testing.T) {
	_, err := Merge([]byte(`[1,2,3]`))
	assert.Error(t, err)

	_, err = Merge([]byte(`not json`))
	assert.Error(t, err)
}

func TestMerge_UnknownKeysPreserved(t *testing.T) {
	in := []byte(`{"username":"miguel","favorite_color":"green","badges":[1,2]}`)
	s, err := Merge(in)
	require.NoError(t, err)

	require.Contains(t, s.Extra, "favorite_color")
	require.Contains(t, s.Extra, "badges")

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"favorite_color":"green"`)
	assert.Contains(t, string(raw), `"badges":[1,2]`)
}

func TestUserState_RoundTrip(t *testing.T) {
	email := "miguel@example.com"
	s := DefaultUserState()
	s.Username = "Miguel"
	s.Email = &email
	s.XP = 2300
	s.Coins = 230
	s.DaysActive = []string{"2025-02-27", "2025-02-28"}
	s.TestHistory = append(s.TestHistory, TestAttempt{
		Timestamp: "2025-02-28T10:00:00", TestID: "t1", Name: "Focus drill",
		Subject: "Discipline", Correct: 7, Total: 10, Percent: 70.0,
		TimeSec: 120, XPGained: 140,
	})
	s.Extra = map[string]json.RawMessage{"future_field": json.RawMessage(`42`)}

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	back, err := Merge(raw)
	require.NoError(t, err)

	assert.Equal(t, s.Username, back.Username)
	require.NotNil(t, back.Email)
	assert.Equal(t, email, *back.Email)
	assert.Equal(t, s.XP, back.XP)
	assert.Equal(t, s.DaysActive, back.DaysActive)
	assert.Equal(t, s.TestHistory, back.TestHistory)
	assert.Equal(t, s.Extra, back.Extra)
}

func TestClone_Independent(t *testing.T) {
	s := DefaultUserState()
	s.XP = 100

	c, err := s.Clone()
	require.NoError(t, err)

	c.XP = 999
	c.DaysActive = append(c.DaysActive, "2025-01-01")

	assert.Equal(t, 100, s.XP)
	assert.Empty(t, s.DaysActive)
}

func TestHasDayActive(t *testing.T) {
	s := DefaultUserState()
	s.DaysActive = []string{"2025-01-01", "2025-01-02"}

	assert.True(t, s.HasDayActive("2025-01-01"))
	assert.False(t, s.HasDayActive("2025-01-03"))
}
