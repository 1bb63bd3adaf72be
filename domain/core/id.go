package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	StudyID  ID
	UnitID   ID
	GroupKey ID
	BlockKey ID
)

// String conversions for domain IDs
func (id StudyID) String() string { return ID(id).String() }
func (id UnitID) String() string  { return ID(id).String() }
func (k GroupKey) String() string { return ID(k).String() }
func (k BlockKey) String() string { return ID(k).String() }

// ParseStudyID parses a string into StudyID
func ParseStudyID(s string) (StudyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("study ID cannot be empty")
	}
	return StudyID(s), nil
}

// ParseBlockKey parses a string into BlockKey
func ParseBlockKey(s string) (BlockKey, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("block key cannot be empty")
	}
	return BlockKey(s), nil
}
