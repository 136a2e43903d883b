package model

import "time"

// SavedTool links a user to a favorited tool.
type SavedTool struct {
	UserID  string    `json:"userId"`
	ToolID  string    `json:"toolId"`
	SavedAt time.Time `json:"savedAt"`
	Tool    *Tool     `json:"tool,omitempty"` // resolved on listing
}
