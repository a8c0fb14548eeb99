package models

// Role gates access to admin endpoints.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User represents an account registered with the local identity provider.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	DisplayName  string `json:"display_name"`
	PhotoURL     string `json:"photo_url,omitempty"`
	PasswordHash string `json:"-"`
	Role         Role   `gorm:"size:20;default:customer" json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
