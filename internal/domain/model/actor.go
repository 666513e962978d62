package model

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleInstructor Role = "INSTRUCTOR"
	RoleStudent    Role = "STUDENT"
)

// Actor is the authenticated caller as handed over by the session layer.
type Actor struct {
	UserID string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInstructor, RoleStudent:
		return true
	}
	return false
}
