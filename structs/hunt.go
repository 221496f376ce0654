package structs

import "time"

type HuntRockInput struct {
	Rock  string `json:"rock" binding:"required"`
	Hint  string `json:"hint"`
	Order int    `json:"order"`
}

type CreateHuntRequest struct {
	Title       string          `json:"title" binding:"required,max=100"`
	Description string          `json:"description" binding:"max=1000"`
	Difficulty  string          `json:"difficulty" binding:"required"`
	StartDate   time.Time       `json:"startDate" binding:"required"`
	EndDate     time.Time       `json:"endDate" binding:"required"`
	Rocks       []HuntRockInput `json:"rocks"`
	IsActive    *bool           `json:"isActive"`
}

type UpdateHuntRequest struct {
	Title       *string         `json:"title" binding:"omitempty,max=100"`
	Description *string         `json:"description" binding:"omitempty,max=1000"`
	Difficulty  *string         `json:"difficulty"`
	StartDate   *time.Time      `json:"startDate"`
	EndDate     *time.Time      `json:"endDate"`
	Rocks       []HuntRockInput `json:"rocks"`
	IsActive    *bool           `json:"isActive"`
}
