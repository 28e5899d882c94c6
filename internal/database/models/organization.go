package models

type Organization struct {
	Base
	Name string `gorm:"not null" json:"name"`
	// Exactly one organization should carry IsDefault; enforced by the
	// seed script and guarded in application logic, not by a constraint.
	IsDefault bool `gorm:"default:false" json:"is_default"`

	// Relationships
	Users []User `gorm:"many2many:users_to_organizations" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
