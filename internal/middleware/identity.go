package middleware

import "github.com/labstack/echo/v4"

// Subject returns the authenticated subject: the email of a registered
// customer or the employee id of a manager.  It is empty on public routes.
func Subject(c echo.Context) string {
	s, _ := c.Get(ctxSubject).(string)
	return s
}

// Role returns the role claim of the authenticated caller.
func Role(c echo.Context) string {
	r, _ := c.Get(ctxRole).(string)
	return r
}

// callerID identifies the caller for rate limiting and logging.
func callerID(c echo.Context) string {
	if s := Subject(c); s != "" {
		return Role(c) + ":" + s
	}
	return "anon"
}
