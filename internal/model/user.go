package model

// Role is a capability tier
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// User fields
const (
	FieldUsername     = "username"
	FieldPasswordHash = "password_hash"
	FieldRole         = "role"
	FieldActive       = "active"

	// FieldLegacyPassword is where the previous system stored its digest.
	FieldLegacyPassword = "password"
)

// User is a typed view over a users record.
type User struct {
	Record
}

func (u User) Username() string { return u.String(FieldUsername) }
func (u User) Role() Role       { return Role(u.String(FieldRole)) }

// Active defaults to true when the field is missing.
func (u User) Active() bool { return u.Bool(FieldActive, true) }

// PasswordHash returns the stored credential digest.
func (u User) PasswordHash() string {
	if h := u.String(FieldPasswordHash); h != "" {
		return h
	}
	return u.String(FieldLegacyPassword)
}

// Public strips password material.
func (u User) Public() Record {
	return u.Without(FieldPasswordHash, FieldLegacyPassword)
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login
type LoginResponse struct {
	Token string `json:"token"`
	User  Record `json:"user"`
}

// CreateUserRequest holds the validated fields of POST /api/users
type CreateUserRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin doctor nurse receptionist"`
}
