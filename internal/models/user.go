package models

import "time"

// User represents a user of the store.
type User struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Username    string    `json:"username" gorm:"uniqueIndex;type:varchar(100)" validate:"required,min=3,max=100"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password    string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	LastName    string    `json:"last_name" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	IsStaff     bool      `json:"is_staff"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Principal is the authenticated caller an operation runs on behalf of.
type Principal struct {
	UserID      string
	Username    string
	IsStaff     bool
	IsSuperuser bool
}

// Authenticated reports whether the principal carries a user identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// CanManageStore is the back-office capability: staff or superuser.
func (p Principal) CanManageStore() bool {
	return p.IsStaff || p.IsSuperuser
}
