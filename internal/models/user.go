package models

// User mirrors the user directory owned by the core platform. The notification
// engine only reads it: role-targeted broadcasts resolve recipients by role at
// call time and per-user language selects notification text.
type User struct {
	BaseModel

	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	Role     string `gorm:"type:varchar(32);index;default:'employee'" json:"role"`
	Language string `gorm:"type:varchar(8);default:'en'" json:"language"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}
