package models

import "time"

// Audio is a rendered narration line.
type Audio struct {
	Data     []byte        `json:"data"`
	Format   string        `json:"format"`
	Duration time.Duration `json:"duration"`
}
