package constants

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)

const (
	SessionCookieName = "session_id"
	CSRFCookieName    = "csrf_token"
	CSRFHeaderName    = "X-CSRF-Token"
	CSRFFormField     = "csrf_token"
	CSRFContextKey    = "csrf_token"
)

const (
	RouteHome    = "/"
	RouteBegin   = "/begin"
	RouteAnswer  = "/answer"
	RouteNext    = "/next"
	RoutePrev    = "/prev"
	RouteGoHome  = "/home"
	RouteGoEnd   = "/end"
	RouteJump    = "/jump"
	RouteRestart = "/restart"
	RouteState   = "/state"
	RouteHealthz = "/healthz"
)

const (
	ErrorCodeInvalidPage      = "invalid_page"
	ErrorCodeActionNotAllowed = "action_not_allowed"
	ErrorCodeUnknownLevel     = "unknown_level"
	ErrorCodeRateLimited      = "rate_limited"
	ErrorCodeInvalidCSRF      = "invalid_csrf"
	ErrorCodeInternal         = "internal_error"
)

const (
	TemplateIndex   = "index.html"
	TemplateContent = "page-content"
)
