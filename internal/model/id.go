package model

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a business-prefixed identifier ("JOB-3F2A9C01").
// The short uppercase form is what operators read over the phone and write on
// delivery slips, so it is kept over raw UUIDs.
func NewID(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}
