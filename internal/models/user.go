package models

// User mirrors the slice of the platform's identity directory the engine
// needs: recipient resolution and role-scoped audience queries. Account
// management lives elsewhere.
type User struct {
	BaseModel

	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`
	Role  string `gorm:"type:varchar(32);index" json:"role"` // job_seeker | employer | admin

	IsActive bool `gorm:"default:true" json:"is_active"`

	Preference *NotificationPreference `gorm:"foreignKey:UserID" json:"-"`
}
