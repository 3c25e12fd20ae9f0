// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the ordered moderation role ladder. Comparisons rely on the
// numeric ordering, so new members must only ever be appended.
type Role int

const (
	RoleNone Role = iota
	RoleUser
	RoleModerator
	RoleAdmin
	RoleOwner
)

var roleNames = map[Role]string{
	RoleNone:      "none",
	RoleUser:      "user",
	RoleModerator: "moderator",
	RoleAdmin:     "admin",
	RoleOwner:     "owner",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// AtLeast reports whether the role ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole resolves a role name; unknown names resolve to RoleNone.
func ParseRole(s string) Role {
	for role, name := range roleNames {
		if strings.EqualFold(s, name) {
			return role
		}
	}
	return RoleNone
}

// User represents a forum member. Level and progress are derived from
// Experience at the read boundary and never stored.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	GlobalRole   Role      `gorm:"not null;default:1" json:"global_role"`
	Experience   int       `gorm:"not null;default:0" json:"experience"`
	AvatarURL    string    `json:"avatar_url"`
	IsDeleted    bool      `gorm:"not null;default:false;index" json:"-"`
	CreatedAt    time.Time `json:"created_at"`

	TopicRoles []UserTopicRole `gorm:"foreignKey:UserID" json:"topic_roles,omitempty"`
}

// UserTopicRole assigns a per-topic role to a user.
type UserTopicRole struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	UserID  uint  `gorm:"not null;index" json:"user_id"`
	User    User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TopicID uint  `gorm:"not null;index" json:"topic_id"`
	Topic   Topic `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
	Role    Role  `gorm:"not null" json:"role"`
}
