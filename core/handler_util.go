package core

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondMsg sends the single-message payload {"msg": ...} used by auth and
// resource errors.
func respondMsg(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"msg": msg})
}

// respondValidation sends the field-error list payload {"errors":[{"msg":...}]}.
func respondValidation(c *gin.Context, msgs []string) {
	errs := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, gin.H{"msg": m})
	}
	c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
}

// respondServerError logs the underlying cause and sends the generic 500
// body. Details never reach the client.
func respondServerError(c *gin.Context, err error) {
	if err != nil {
		log.Printf("server error: %v", err)
	}
	c.String(http.StatusInternalServerError, "Server Error")
}
