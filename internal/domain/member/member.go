package member

import (
	"database/sql"
	"time"
)

// Member represents a registered member in the system. The Barcode is the
// external identifier presented at the kiosk; it never changes once issued.
type Member struct {
	ID        int64
	Barcode   string
	FirstName string
	LastName  sql.NullString // To handle optional last name
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName renders "First Last" with the optional last name applied.
func (m *Member) DisplayName() string {
	if m.LastName.Valid && m.LastName.String != "" {
		return m.FirstName + " " + m.LastName.String
	}
	return m.FirstName
}
