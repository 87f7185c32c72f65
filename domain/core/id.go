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
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
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
	// ODSCode is the stable identifier for a care-provider organization.
	ODSCode string
	// PCNID identifies a primary care network (small multi-practice grouping).
	PCNID string
	// ICBID identifies an integrated care board (regional grouping of PCNs).
	ICBID string
	// ExtractionID identifies one extraction batch; records from a later
	// extraction supersede earlier ones for the same (practice, period).
	ExtractionID ID
)

func (c ODSCode) String() string       { return string(c) }
func (p PCNID) String() string         { return string(p) }
func (i ICBID) String() string         { return string(i) }
func (e ExtractionID) String() string  { return ID(e).String() }
func (e ExtractionID) IsEmpty() bool   { return e == "" }

// NewExtractionID creates a fresh extraction batch identifier
func NewExtractionID() ExtractionID {
	return ExtractionID(NewID())
}

// ParseODSCode parses and validates an ODS code
func ParseODSCode(s string) (ODSCode, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return "", fmt.Errorf("ODS code cannot be empty")
	}
	return ODSCode(s), nil
}
