// file: models/team_member.go
package models

import "time"

type TeamMember struct {
	ID       uint32 `gorm:"primarykey" json:"id"`
	TeamID   uint32 `gorm:"uniqueIndex:unique_team_user;not null" json:"team_id"`
	UserID   uint32 `gorm:"uniqueIndex:unique_team_user;not null" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	HasCar   bool   `gorm:"not null;default:0" json:"has_car"`
	JoinedAt time.Time `json:"joined_at"`
}

func (TeamMember) TableName() string {
	return "teammeal_team_members"
}
