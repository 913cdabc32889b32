package core

import "github.com/google/uuid"

// GenerateID returns a new unique identifier for games and messages.
func GenerateID() string {
	return uuid.NewString()
}
