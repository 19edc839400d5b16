package model

import "time"

const (
	ProviderKakao  = "kakao"
	ProviderGoogle = "google"
)

// User is a person who signed in through one social provider. The pair
// (Provider, SocialID) identifies them across logins.
type User struct {
	ID        string    `db:"id" json:"id"`
	Provider  string    `db:"provider" json:"provider"`
	SocialID  string    `db:"social_id" json:"social_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
