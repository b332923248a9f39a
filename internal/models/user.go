package models

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRolePersonnel UserRole = "personnel"
	UserRoleStudent   UserRole = "student"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is the directory record for an identity-provider account. The row and
// the account share a primary key, so a user's ID is its account uid.
type User struct {
	BaseModel
	Email             string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName         string     `json:"firstName" gorm:"type:varchar(100);not null"`
	LastName          string     `json:"lastName" gorm:"type:varchar(100);not null"`
	Role              UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'student';index"`
	Promotion         string     `json:"promotion" gorm:"type:varchar(50)"`
	Specialty         string     `json:"specialty" gorm:"type:varchar(100)"`
	NotificationToken *string    `json:"-" gorm:"type:text"`
	Status            UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'inactive'"`
}

// IsStaff reports whether the user may act on other users' requests.
func (u *User) IsStaff() bool {
	return u.Role == UserRoleAdmin || u.Role == UserRolePersonnel
}
