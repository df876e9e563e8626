package models

// SignupRequest registers a new identity.
type SignupRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=64"`
	Contact         string `json:"contact" validate:"required,max=32"`
	Password        string `json:"password" validate:"required,min=4,max=72"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Username  string `json:"username" validate:"required"`
	Password  string `json:"password" validate:"required"`
	AutoLogin bool   `json:"-"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// UpdateUserRequest changes mutable profile fields.
type UpdateUserRequest struct {
	Contact *string `json:"contact" validate:"omitempty,max=32"`
}

// RequestMeta carries client details recorded in audit logs.
type RequestMeta struct {
	IP        string
	UserAgent string
}
