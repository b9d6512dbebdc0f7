// Package models defines the canonical shape of a persisted user profile
// and the record types stored in its history logs. The JSON layout of
// UserState is the storage contract: field order and key names match the
// files written by earlier versions of the engine.
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// DefaultUsername is shown until a profile name is set.
const DefaultUsername = "Login"

// UserState is one user's full persisted profile. It has a fixed, known
// key set; unknown keys found in storage are preserved in Extra so that
// newer files round-trip through older binaries unchanged.
//
// The auth_pw_* triple is present only once a password has been set; a
// partial triple is treated as "no password" (see cryptox).
type UserState struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`

	XP    int `json:"xp"`
	Coins int `json:"coins"`
	Gems  int `json:"gems"`

	TestsTaken  int           `json:"tests_taken"`
	TestHistory []TestAttempt `json:"test_history"`
	XPEvents    []XPEvent     `json:"xp_events"`
	DaysActive  []string      `json:"days_active"`

	DailyTasksDone map[string][]string `json:"daily_tasks_done"`

	TokenBalance float64      `json:"token_balance"`
	TokenTrades  []TokenTrade `json:"token_trades"`

	QubicIdentity     string         `json:"qubic_identity"`
	QubicTickHistory  []HistoryPoint `json:"qubic_tick_history"`
	QubicPriceHistory []HistoryPoint `json:"qubic_price_history"`

	AIChatHistory []ChatMessage `json:"ai_chat_history"`

	AuthPwSalt   string `json:"auth_pw_salt,omitempty"`
	AuthPwHash   string `json:"auth_pw_hash,omitempty"`
	AuthPwRounds int    `json:"auth_pw_rounds,omitempty"`

	// Extra preserves keys outside the schema for forward compatibility.
	Extra map[string]json.RawMessage `json:"-"`
}

// DefaultUserState returns a fresh profile with every field at its default.
// It is the single source of truth for "what fields exist".
func DefaultUserState() *UserState {
	s := &UserState{Username: DefaultUsername}
	s.EnsureShape()
	return s
}

// EnsureShape replaces nil collections with empty ones so that serialized
// output always contains [] / {} rather than null, matching the stored
// layout. It is also the self-healing hook for fields a caller may have
// nilled out.
func (s *UserState) EnsureShape() {
	if s.TestHistory == nil {
		s.TestHistory = []TestAttempt{}
	}
	if s.XPEvents == nil {
		s.XPEvents = []XPEvent{}
	}
	if s.DaysActive == nil {
		s.DaysActive = []string{}
	}
	if s.DailyTasksDone == nil {
		s.DailyTasksDone = map[string][]string{}
	}
	if s.TokenTrades == nil {
		s.TokenTrades = []TokenTrade{}
	}
	if s.QubicTickHistory == nil {
		s.QubicTickHistory = []HistoryPoint{}
	}
	if s.QubicPriceHistory == nil {
		s.QubicPriceHistory = []HistoryPoint{}
	}
	if s.AIChatHistory == nil {
		s.AIChatHistory = []ChatMessage{}
	}
}

// Merge produces a profile where defaults provide any missing keys and the
// raw stored JSON overrides present ones. The merge is shallow: a stored
// collection fully replaces the default one. Unknown keys end up in Extra.
func Merge(raw []byte) (*UserState, error) {
	s := DefaultUserState()
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	s.EnsureShape()
	return s, nil
}

// Clone returns a deep copy of the state.
func (s *UserState) Clone() (*UserState, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return Merge(raw)
}

// HasDayActive reports whether day (a "YYYY-MM-DD" string) is already
// recorded in DaysActive.
func (s *UserState) HasDayActive(day string) bool {
	for _, d := range s.DaysActive {
		if d == day {
			return true
		}
	}
	return false
}

// userStateAlias avoids recursing into the custom JSON methods.
type userStateAlias UserState

var knownStateKeys = map[string]struct{}{
	"username": {}, "email": {},
	"xp": {}, "coins": {}, "gems": {},
	"tests_taken": {}, "test_history": {}, "xp_events": {}, "days_active": {},
	"daily_tasks_done": {},
	"token_balance":    {}, "token_trades": {},
	"qubic_identity": {}, "qubic_tick_history": {}, "qubic_price_history": {},
	"ai_chat_history": {},
	"auth_pw_salt":    {}, "auth_pw_hash": {}, "auth_pw_rounds": {},
}

// MarshalJSON writes the schema fields in declaration order followed by any
// preserved unknown keys (sorted, for deterministic output).
func (s *UserState) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal((*userStateAlias)(s))
	if err != nil {
		return nil, err
	}
	if len(s.Extra) == 0 {
		return base, nil
	}

	keys := make([]string, 0, len(s.Extra))
	for k := range s.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	b.Write(base[:len(base)-1])
	for _, k := range keys {
		b.WriteByte(',')
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(s.Extra[k])
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON decodes the schema fields and collects every unknown key
// into Extra. A known key holding a wrong-typed value does not fail the
// whole decode: the malformed value is dropped and the field reset to its
// default, so one damaged field never costs the rest of the profile.
func (s *UserState) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	for {
		blob, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		err = json.Unmarshal(blob, (*userStateAlias)(s))
		if err == nil {
			break
		}
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
		key := typeErr.Field
		if i := strings.IndexByte(key, '.'); i >= 0 {
			key = key[:i]
		}
		if _, ok := raw[key]; !ok {
			return err
		}
		delete(raw, key)
		s.resetField(key)
	}

	for k, v := range raw {
		if _, ok := knownStateKeys[k]; ok {
			continue
		}
		if s.Extra == nil {
			s.Extra = map[string]json.RawMessage{}
		}
		s.Extra[k] = v
	}

	return nil
}

// resetField restores one schema field to its default value. Collections
// are nilled here and re-created by EnsureShape.
func (s *UserState) resetField(key string) {
	switch key {
	case "username":
		s.Username = DefaultUsername
	case "email":
		s.Email = nil
	case "xp":
		s.XP = 0
	case "coins":
		s.Coins = 0
	case "gems":
		s.Gems = 0
	case "tests_taken":
		s.TestsTaken = 0
	case "test_history":
		s.TestHistory = nil
	case "xp_events":
		s.XPEvents = nil
	case "days_active":
		s.DaysActive = nil
	case "daily_tasks_done":
		s.DailyTasksDone = nil
	case "token_balance":
		s.TokenBalance = 0
	case "token_trades":
		s.TokenTrades = nil
	case "qubic_identity":
		s.QubicIdentity = ""
	case "qubic_tick_history":
		s.QubicTickHistory = nil
	case "qubic_price_history":
		s.QubicPriceHistory = nil
	case "ai_chat_history":
		s.AIChatHistory = nil
	case "auth_pw_salt":
		s.AuthPwSalt = ""
	case "auth_pw_hash":
		s.AuthPwHash = ""
	case "auth_pw_rounds":
		s.AuthPwRounds = 0
	}
}
