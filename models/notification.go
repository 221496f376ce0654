package models

import "time"

const (
	NotificationAchievementAwarded = "achievement_awarded"
	NotificationHuntCompleted      = "hunt_completed"
)

// NotificationEvent is broadcast to websocket clients after an action
type NotificationEvent struct {
	Type            string    `json:"type"`
	UserID          string    `json:"userId"`
	AchievementID   string    `json:"achievementId,omitempty"`
	AchievementName string    `json:"achievementName,omitempty"`
	HuntID          string    `json:"huntId,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}
