package structs

import "rockspotter/progress"

type CreateAchievementRequest struct {
	Name        string                   `json:"name" binding:"required,max=100"`
	Description string                   `json:"description" binding:"required"`
	Icon        string                   `json:"icon"`
	Type        progress.AchievementType `json:"type" binding:"required"`
	Criteria    progress.Criteria        `json:"criteria"`
	Rarity      string                   `json:"rarity"`
}

type AwardAchievementRequest struct {
	UserID        string `json:"userId" binding:"required"`
	AchievementID string `json:"achievementId" binding:"required"`
}
