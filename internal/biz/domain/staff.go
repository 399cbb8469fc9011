package domain

// StaffType represents the role of a staff principal
type StaffType string

const (
	StaffTypeAdmin StaffType = "admin"
	StaffTypeAgent StaffType = "agent"
	StaffTypeBot   StaffType = "bot"
)

// Staff represents an authenticated staff principal.
// Authentication happens upstream; this layer only consumes the result.
type Staff struct {
	ID   string
	Name string
	Type StaffType
}
