package api

import "github.com/gin-gonic/gin"

func requestLogger() gin.HandlerFunc {
	return gin.Logger()
}
