package bootstrap

import "github.com/gin-gonic/gin"

// ConfigureGin sets the gin mode from the app environment.
func ConfigureGin(environment string) {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
}
