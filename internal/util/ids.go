package util

import "github.com/google/uuid"

// NewID returns a prefixed random id, e.g. "job_0b6e...".
func NewID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}
