package events

import "github.com/mcdev12/trivianight/go/internal/models"

// Role is the part a connection plays in a session.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// ConnectPayload is sent once by every client. Hosts without a session name create one.
type ConnectPayload struct {
	Role        Role   `json:"role"`
	ClientID    string `json:"client_id"`
	SessionName string `json:"session_name,omitempty"`
	PlayerName  string `json:"player_name,omitempty"`
}

type AttemptSpectatePayload struct {
	SessionName string `json:"session_name"`
	ClientID    string `json:"client_id"`
}

type UpdateGameSettingsPresetPayload struct {
	Preset models.SettingsPreset `json:"preset"`
}

type UpdateVoiceTypePayload struct {
	VoiceType       models.VoiceType `json:"voice_type"`
	LegacySynthesis bool             `json:"legacy_synthesis,omitempty"`
}

type UpdateVoiceDurationPayload struct {
	VoiceLine       string  `json:"voice_line"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type GenerateCustomGamePayload struct {
	Settings models.TriviaGameSettings `json:"settings"`
}

type SelectCluePayload struct {
	CategoryIndex int `json:"category_index"`
	ClueIndex     int `json:"clue_index"`
}

type SubmitResponsePayload struct {
	Response string `json:"response"`
}

type SubmitWagerPayload struct {
	Amount int `json:"amount"`
}

type MessagePayload struct {
	Text    string `json:"text"`
	IsError bool   `json:"is_error"`
}

type CancelGamePayload struct {
	Reason string `json:"reason,omitempty"`
}

// StatePayload is the public view of the session broadcast on every transition.
type StatePayload struct {
	State         models.SessionState `json:"state"`
	Selector      string              `json:"selector,omitempty"`
	Responder     string              `json:"responder,omitempty"`
	CategoryIndex int                 `json:"category_index"`
	ClueIndex     int                 `json:"clue_index"`
	Clue          *models.TriviaClue  `json:"clue,omitempty"`
}

type TriviaRoundPayload struct {
	Preset models.SettingsPreset `json:"preset"`
	Round  *models.TriviaRound   `json:"round"`
}

type LeaderboardPayload struct {
	Entries []models.LeaderboardEntry `json:"entries"`
}

// VoiceLinePayload carries a narration line. Audio is base64 and only set for server voices.
type VoiceLinePayload struct {
	Line         string `json:"line"`
	Announcement bool   `json:"announcement,omitempty"`
	Audio        string `json:"audio,omitempty"`
}

// SessionJoinedPayload confirms a connection's membership.
type SessionJoinedPayload struct {
	SessionName string                `json:"session_name"`
	Role        Role                  `json:"role"`
	Creator     bool                  `json:"creator"`
	State       models.SessionState   `json:"state"`
	Preset      models.SettingsPreset `json:"preset"`
	VoiceType   models.VoiceType      `json:"voice_type"`
}

type AckPayload struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}
