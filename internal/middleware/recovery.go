package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// Recovery answers panics with a 500 envelope. The stack trace is included
// outside production.
func Recovery(production bool) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		stack := string(debug.Stack())
		log.Printf("Panic recovered on %s %s: %v\n%s", c.Request.Method, c.Request.URL.Path, recovered, stack)

		body := gin.H{"success": false, "message": "Internal server error"}
		if !production {
			body["error"] = fmt.Sprint(recovered)
			body["stack"] = stack
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	})
}

// CORS allows browser clients from the configured origins. "*" allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowed["*"]:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
