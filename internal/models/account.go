package models

// Account is the identity provider's credential record. It is deliberately
// separate from User: the directory row carries profile and role, the account
// carries what is needed to authenticate and nothing else.
type Account struct {
	BaseModel
	Email         string `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string `json:"-" gorm:"type:text;not null"`
	EmailVerified bool   `json:"emailVerified" gorm:"not null;default:false"`
	Disabled      bool   `json:"disabled" gorm:"not null;default:false"`
}
