// Package model defines the core time-capsule data types.
package model

import "time"

// Memory represents one time-capsule entry.
type Memory struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content,omitempty"`
	MediaPath        string    `json:"media_path,omitempty"`
	CreatedDate      time.Time `json:"created_date"`
	UnlockDate       time.Time `json:"unlock_date"`
	UnlockType       string    `json:"unlock_type"`
	UnlockConditions string    `json:"unlock_conditions,omitempty"`
	IsUnlocked       bool      `json:"is_unlocked"`
	CategoryID       string    `json:"category,omitempty"`
	Mood             string    `json:"mood,omitempty"`
	Importance       int       `json:"importance"`
	Tags             []string  `json:"tags,omitempty"`
}

// Response is a reflection written after a memory unlocks.
// Responses are immutable once created.
type Response struct {
	ID           string    `json:"id"`
	MemoryID     string    `json:"memory_id"`
	Content      string    `json:"response_content"`
	ResponseDate time.Time `json:"response_date"`
	Mood         string    `json:"response_mood,omitempty"`
}

// Category is a fixed classification label attachable to a memory.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// MemoryCounts holds aggregate store counts. Locked + Unlocked == Total.
type MemoryCounts struct {
	Total    int `json:"total"`
	Locked   int `json:"locked"`
	Unlocked int `json:"unlocked"`
}

// Importance bounds for a memory.
const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// UnlockTypeDate is the default unlock type. The other types are recorded
// as metadata only; the unlock date used for lifecycle purposes is always
// the literal unlock_date field.
const UnlockTypeDate = "date"

// ValidUnlockTypes are the allowed unlock types.
var ValidUnlockTypes = map[string]bool{
	"date":     true,
	"interval": true,
	"random":   true,
}

// ValidMoods are the allowed mood labels.
var ValidMoods = map[string]bool{
	"Happy":      true,
	"Reflective": true,
	"Excited":    true,
	"Curious":    true,
	"Hopeful":    true,
	"Anxious":    true,
	"Proud":      true,
}
