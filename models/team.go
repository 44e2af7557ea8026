package models

import "time"

type Team struct {
	ID         int       `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	IsPersonal bool      `json:"is_personal" db:"is_personal"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}
