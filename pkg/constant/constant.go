package constant

const (
	RoleAdmin       = "admin"
	RoleUser        = "user"
	DefaultUserRole = RoleUser

	AuthorizationHeader = "Authorization"
	BearerScheme        = "Bearer"

	// LocalsUser is the fiber.Ctx locals key holding the authenticated *domain.User.
	LocalsUser = "user"
	// LocalsSession holds the verified session claims.
	LocalsSession = "session"

	ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"
	ResetPasswordMessage  = "Password has been reset successfully"
	SignupMessage         = "User registered successfully"
	LogoutMessage         = "Logged out successfully"
)

// ValidRole reports whether r is a role the service understands.
func ValidRole(r string) bool {
	return r == RoleAdmin || r == RoleUser
}
