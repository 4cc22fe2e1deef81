package model

import "time"

type Role string

const (
	RoleProvider Role = "provider"
	RoleStudent  Role = "student"
)

func (r Role) IsValid() bool {
	return r == RoleProvider || r == RoleStudent
}

// User is the read model of a profile owned by the profile service. The booking
// core only writes the embedded availability template.
type User struct {
	ID                 string          `json:"id,omitempty" bson:"_id,omitempty"`
	Name               string          `json:"name" bson:"name"`
	Email              string          `json:"email" bson:"email"`
	Role               Role            `json:"role" bson:"role"`
	Specialties        []string        `json:"specialties,omitempty" bson:"specialties,omitempty"`
	PreferredInterests []string        `json:"preferredInterests,omitempty" bson:"preferred_interests,omitempty"`
	HourlyRate         float64         `json:"hourlyRate,omitempty" bson:"hourly_rate,omitempty"`
	Location           string          `json:"location,omitempty" bson:"location,omitempty"`
	Availability       *WeeklyTemplate `json:"availability,omitempty" bson:"availability,omitempty"`
	CreatedAt          time.Time       `json:"createdAt" bson:"created_at"`
}

func (u *User) IsProvider() bool {
	return u.Role == RoleProvider
}
