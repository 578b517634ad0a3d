// Package response writes the bodies of successful requests.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Success messages returned as bare JSON strings.
const (
	RegisterSuccess = "Success!"
	LoginSuccess    = "Success"
)

// Message writes msg as a JSON string, e.g. "Success!".
func Message(c echo.Context, statusCode int, msg string) error {
	return c.JSON(statusCode, msg)
}

// OK writes data as the JSON body of a 200 response.
func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}
