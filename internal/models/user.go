package models

// User represents an authenticated customer.
type User struct {
	BaseModel
	Email        string `gorm:"uniqueIndex;size:254" json:"email"`
	FirstName    string `gorm:"size:150" json:"first_name"`
	LastName     string `gorm:"size:150" json:"last_name"`
	PasswordHash string `json:"-"`
	IsAgree      bool   `json:"is_agree"`
}
