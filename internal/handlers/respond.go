package handlers

import "github.com/gin-gonic/gin"

// fail sends the uniform error envelope. Handlers never leak internal
// error details past this point.
func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

const serverErrorMessage = "Something went wrong, please try again later"
