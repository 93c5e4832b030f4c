package auth

import "time"

// User is the profile resolved from the OAuth provider upon login.
// Its ID is the stable identifier that keys all user-owned data.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Picture   string    `json:"picture,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
