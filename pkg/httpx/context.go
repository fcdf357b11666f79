package httpx

type ctxKey string

// Context keys under which the authentication middleware stores the
// verified caller identity.
const (
	CtxKeyEmail ctxKey = "auth.email"
	CtxKeyRole  ctxKey = "auth.role"
)
