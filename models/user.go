package models

import "time"

// Role IDs as seeded by the migrations. Role checks in routes and services
// use these constants, never raw literals.
const (
	RoleStudent      = 1
	RoleFaculty      = 2
	RoleProgramChair = 3
	RoleDean         = 4
	RoleAdmin        = 5
)

type User struct {
	UserID     int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	FirstName  string     `gorm:"column:first_name" json:"first_name"`
	LastName   string     `gorm:"column:last_name" json:"last_name"`
	Email      string     `gorm:"column:email;unique" json:"email"`
	Password   string     `gorm:"column:password" json:"-"`
	RoleID     int        `gorm:"column:role_id" json:"role_id"`
	StudentNo  *string    `gorm:"column:student_no" json:"student_no,omitempty"`
	Program    *string    `gorm:"column:program" json:"program,omitempty"`
	Department *string    `gorm:"column:department" json:"department,omitempty"`
	College    *string    `gorm:"column:college" json:"college,omitempty"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt   *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}

// FullName joins first and last name for notification texts.
func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
