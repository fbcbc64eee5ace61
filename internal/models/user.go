package models

// Role tags a session as a tenant or an administrator.
type Role string

const (
	RoleTenant Role = "Tenant"
	RoleAdmin  Role = "Admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleTenant || r == RoleAdmin
}

type User struct {
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	UserType    Role   `json:"userType"`
}

// SignupRequest is the body of POST /user/signup.
type SignupRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	UserType    Role   `json:"userType" validate:"required,oneof=Tenant Admin"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the token and profile returned by POST /user/login.
type LoginResponse struct {
	Token       string `json:"token"`
	UserID      int64  `json:"userId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	UserType    Role   `json:"userType"`
	PhoneNumber string `json:"phoneNumber"`
}

// MessageResponse is the generic {"message": "..."} acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
