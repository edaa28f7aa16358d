// Package modules wires HTTP handlers and middleware into routes.
package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/matrixnet/social-service/internal/interface/http"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/pkg/helpers"
)

// UserModule mounts registration, login and account routes.
// Public: POST /api/register, POST /api/login
// Protected: profile, password, search, logout, account deletion.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", m.Handler.Register)
	rg.POST("/login", m.Handler.Login)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/password", m.Handler.ChangePassword)
		auth.DELETE("/account", m.Handler.DeleteAccount)
		auth.GET("/users/search", m.Handler.SearchUsers)
	}
}
