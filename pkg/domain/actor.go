package domain

// Role is the coarse role tag attached to an authenticated actor. Authorization
// decisions belong to the external identity layer; the core only records the
// tag and gates a handful of endpoints on it.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleDoctor     Role = "doctor"
	RoleNurse      Role = "enfermero"
)

// Clinical reports whether the role belongs to ward staff that creates
// clinical records (as opposed to supervisory or administrative accounts).
func (r Role) Clinical() bool {
	return r == RoleDoctor || r == RoleNurse
}

// Actor is the already-authenticated identity the core receives from its
// collaborators: an opaque reference, a display name, and a role tag.
type Actor struct {
	ID   UserID
	Name string
	Role Role
}

// System is the actor used for operations not attributable to a user, such as
// scheduled report runs. Its nil ID maps to a NULL actor column.
func System() Actor {
	return Actor{Name: "system"}
}
