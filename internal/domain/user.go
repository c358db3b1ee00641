package domain

// UserRole represents the role of a user
type UserRole string

const (
	RoleConsumer UserRole = "Consumer"
	RoleProvider UserRole = "Provider"
	RoleAdmin    UserRole = "Admin"
)

// User is an account as the backend exposes it
type User struct {
	Entity
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Phone    string   `json:"phone,omitempty"`
	Address1 string   `json:"address1,omitempty"`
}

// IsProvider checks if user sells items
func (u *User) IsProvider() bool {
	return u != nil && (u.Role == RoleProvider || u.Role == RoleAdmin)
}

// SignUpInput is the body of POST /signup, wrapped in {"user": ...}
type SignUpInput struct {
	Email                string   `json:"email" validate:"required,email"`
	Name                 string   `json:"name" validate:"required,max=50"`
	Password             string   `json:"password" validate:"required,min=6"`
	PasswordConfirmation string   `json:"password_confirmation" validate:"required,eqfield=Password"`
	Phone                string   `json:"phone" validate:"omitempty,max=20"`
	Address1             string   `json:"address1" validate:"required"`
	Role                 UserRole `json:"role,omitempty" validate:"omitempty,oneof=Consumer Provider"`
}

// SignInInput is the body of POST /login, wrapped in {"user": ...}
type SignInInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EditProfileInput is the body of POST /edit-profile
type EditProfileInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=50"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address1 string `json:"address1" validate:"required"`
}

// ChangePasswordInput is the body of POST /change-password
type ChangePasswordInput struct {
	CurrentPassword      string `json:"currentPassword" validate:"required"`
	NewPassword          string `json:"newPassword" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=NewPassword"`
}
