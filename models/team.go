// file: models/team.go
package models

import (
	"time"
)

type Team struct {
	ID              uint32       `gorm:"primarykey" json:"id"`
	TeamName        string       `gorm:"column:team_name;size:100;unique;not null" json:"team_name"`
	MaxMembers      int          `gorm:"not null;default:8" json:"max_members"`
	VehicleCapacity int          `gorm:"not null;default:1" json:"vehicle_capacity"`
	InvitationCode  string       `gorm:"size:20;unique;not null" json:"invitation_code"`
	CreatedBy       uint32       `gorm:"not null" json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Members         []TeamMember `gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

func (Team) TableName() string {
	return "teammeal_team"
}
