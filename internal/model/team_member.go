package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team roles, from most to least privileged.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// ValidRole reports whether role is one of the known team roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// TeamMember associates a member user with a team owner.
type TeamMember struct {
	ID        string `gorm:"primaryKey"`
	OwnerID   string `gorm:"index:idx_team_owner_member,unique"`
	MemberID  string `gorm:"index:idx_team_owner_member,unique"`
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Member *User `gorm:"foreignKey:MemberID"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
