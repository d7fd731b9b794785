package service

// Client-visible messages.  Authentication failures only ever surface one
// of these.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgAccountNotActive   = "Account is not active"

	MsgRefreshRevoked   = "Refresh token has been revoked"
	MsgRefreshExpired   = "Refresh token has expired"
	MsgRefreshSignature = "Invalid refresh token signature"
	MsgRefreshInvalid   = "Invalid refresh token"

	MsgUnauthorized      = "Unauthorized"
	MsgTokenExpired      = "Token has expired"
	MsgTokenSignature    = "Invalid token signature"
	MsgTokenRevoked      = "Token has been revoked"
	MsgUserGone          = "User no longer exists"
	MsgUserNotActive     = "User account is not active"
	MsgLoggedOut         = "Logged out successfully"
	MsgForgotPassword    = "If an account with this email exists, you will receive a password reset link shortly."
	MsgRegistered        = "Registration successful. Please check your email to verify your account."
	MsgEmailExists       = "Email already exists"
	MsgEmailPasswordReq  = "Email and password are required"
	MsgPasswordTooLong   = "Password is too long"
	MsgInvalidRole       = "Invalid role"
	MsgInvalidStatus     = "Invalid status"
	MsgCannotAssignRole  = "Insufficient permissions to assign this role"
	MsgCannotManageUser  = "Insufficient permissions to manage this user"
	MsgCannotSuspendSelf = "You cannot suspend your own account"
	MsgUserNotFound      = "User not found"
)
