package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every API reply.
type Response struct {
	Code int    `json:"code"` // 0 success, -1 failure
	Msg  string `json:"msg"`
	Data any    `json:"data,omitempty"`
}

// Success replies 200 with data.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code: 0,
		Msg:  "success",
		Data: data,
	})
}

// Fail replies with status and msg.
func Fail(c *gin.Context, status int, msg string) {
	FailWith(c, status, msg, nil)
}

// FailWith replies with status and msg and attaches data, such as the
// summary of a run that could not start.
func FailWith(c *gin.Context, status int, msg string, data any) {
	c.AbortWithStatusJSON(status, Response{
		Code: -1,
		Msg:  msg,
		Data: data,
	})
}
