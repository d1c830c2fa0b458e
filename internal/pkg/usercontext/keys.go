package usercontext

// Locals keys shared by the middleware and controllers.
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyAccount       = "ACCOUNT"
	KeyFromProtected = "from_protected"
)
