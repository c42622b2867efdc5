package models

// SessionState defines the phase a trivia session is in.
type SessionState string

const (
	SessionStateLobby                  SessionState = "LOBBY"
	SessionStateClueSelection          SessionState = "CLUE_SELECTION"
	SessionStateReadingCategoryNames   SessionState = "READING_CATEGORY_NAMES"
	SessionStateReadingClueSelection   SessionState = "READING_CLUE_SELECTION"
	SessionStateReadingClue            SessionState = "READING_CLUE"
	SessionStateClueTossup             SessionState = "CLUE_TOSSUP"
	SessionStateClueResponse           SessionState = "CLUE_RESPONSE"
	SessionStateWaitingForClueDecision SessionState = "WAITING_FOR_CLUE_DECISION"
	SessionStateReadingClueDecision    SessionState = "READING_CLUE_DECISION"
	SessionStateWagerResponse          SessionState = "WAGER_RESPONSE"
	SessionStateGameOver               SessionState = "GAME_OVER"
)

// SettingsPreset names a predefined set of game settings.
type SettingsPreset string

const (
	SettingsPresetNormal SettingsPreset = "NORMAL"
	SettingsPresetQuick  SettingsPreset = "QUICK"
	SettingsPresetLong   SettingsPreset = "LONG"
	SettingsPresetCustom SettingsPreset = "CUSTOM"
)

// Valid reports whether p is a preset a client may select directly.
// CUSTOM is only reachable through custom game generation.
func (p SettingsPreset) Valid() bool {
	switch p {
	case SettingsPresetNormal, SettingsPresetQuick, SettingsPresetLong:
		return true
	}
	return false
}

// VoiceType selects how narration is produced.
type VoiceType string

const (
	VoiceTypeAnnouncer VoiceType = "ANNOUNCER"
	VoiceTypeCasual    VoiceType = "CASUAL"
	// VoiceTypeLocal is rendered by the host display itself.
	VoiceTypeLocal VoiceType = "LOCAL"
)

func (v VoiceType) Valid() bool {
	switch v {
	case VoiceTypeAnnouncer, VoiceTypeCasual, VoiceTypeLocal:
		return true
	}
	return false
}

// ServerSynthesized reports whether audio for this voice is rendered server side.
func (v VoiceType) ServerSynthesized() bool {
	return v == VoiceTypeAnnouncer || v == VoiceTypeCasual
}

// Player is a contestant in a session.
type Player struct {
	ConnID   string `json:"conn_id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Online   bool   `json:"online"`
}

// LeaderboardEntry is one row of the leaderboard broadcast.
type LeaderboardEntry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Online bool   `json:"online"`
}

// SessionSummary is a read-only view of a session used by admin tooling.
type SessionSummary struct {
	Name          string         `json:"name"`
	State         SessionState   `json:"state"`
	Preset        SettingsPreset `json:"preset"`
	VoiceType     VoiceType      `json:"voice_type"`
	CreatorConnID string         `json:"creator_conn_id"`
	Hosts         int            `json:"hosts"`
	Players       int            `json:"players"`
	ActiveTimers  []string       `json:"active_timers,omitempty"`
}
