package models

type Permission struct {
	Base
	Name        string  `gorm:"not null" json:"name"`
	Key         string  `gorm:"uniqueIndex;not null" json:"key"`
	Description *string `json:"description"`

	// Relationships
	Roles []Role `gorm:"many2many:permissions_to_roles" json:"-"`
}

func (Permission) TableName() string {
	return "permissions"
}
