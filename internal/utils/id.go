package utils

import "github.com/google/uuid"

// GenerateID returns a new request id.
func GenerateID() string {
	return uuid.NewString()
}
