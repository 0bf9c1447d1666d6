package model

import "time"

const (
	GenderMale      = "Male"
	GenderFemale    = "Female"
	GenderNonBinary = "Non Binary"
)

var Genders = []string{GenderMale, GenderFemale, GenderNonBinary}

type User struct {
	ID             uint      `gorm:"primaryKey"`
	Email          string    `gorm:"size:128;not null;uniqueIndex"`
	Username       *string   `gorm:"size:64;uniqueIndex"`
	Name           string    `gorm:"size:128;not null"`
	PasswordHash   string    `gorm:"size:255;not null"`
	Gender         string    `gorm:"size:16;not null"`
	Age            int       `gorm:"not null"`
	Bio            string    `gorm:"type:text"`
	ProfilePicture string    `gorm:"size:512"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserPublic is the only shape of a user that leaves the server.
type UserPublic struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Username       string    `json:"username,omitempty"`
	Gender         string    `json:"gender"`
	Age            int       `json:"age"`
	Bio            string    `json:"bio"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (u *User) Public() UserPublic {
	out := UserPublic{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Gender:         u.Gender,
		Age:            u.Age,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
	if u.Username != nil {
		out.Username = *u.Username
	}
	return out
}

func IsGender(v string) bool {
	for _, g := range Genders {
		if g == v {
			return true
		}
	}
	return false
}
