package structs

// LocationInput is a GeoJSON point or a bare longitude/latitude pair
type LocationInput struct {
	Coordinates []float64 `json:"coordinates"`
	Longitude   *float64  `json:"longitude"`
	Latitude    *float64  `json:"latitude"`
}

type CreateRockRequest struct {
	Title       string        `json:"title" binding:"required,max=100"`
	Description string        `json:"description" binding:"max=1000"`
	Photo       string        `json:"photo" binding:"required"`
	RockType    string        `json:"rockType" binding:"required"`
	Location    LocationInput `json:"location"`
	Address     string        `json:"address"`
	Tags        []string      `json:"tags"`
	IsPublic    *bool         `json:"isPublic"`
}

type UpdateRockRequest struct {
	Title       *string  `json:"title" binding:"omitempty,max=100"`
	Description *string  `json:"description" binding:"omitempty,max=1000"`
	Photo       *string  `json:"photo"`
	RockType    *string  `json:"rockType"`
	Address     *string  `json:"address"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"isPublic"`
}

type CommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type IdentifyRequest struct {
	Image string `json:"image" binding:"required"`
}
