package structs

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	PhoneNumber string `json:"phoneNumber"`
}

// LoginRequest accepts either email or username
type LoginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Bio            *string `json:"bio" binding:"omitempty,max=500"`
	ProfilePicture *string `json:"profilePicture"`
	PhoneNumber    *string `json:"phoneNumber"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
