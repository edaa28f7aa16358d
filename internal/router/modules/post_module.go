package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/matrixnet/social-service/internal/interface/http"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/pkg/helpers"
)

// PostModule mounts post, comment and like routes. Reads are public,
// writes require a session.
type PostModule struct {
	Handler *handlers.PostHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func (m *PostModule) Register(rg *gin.RouterGroup) {
	rg.GET("/posts", m.Handler.List)
	rg.GET("/posts/:id", m.Handler.Get)
	rg.GET("/users/:id/posts", m.Handler.ListByUser)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	{
		auth.POST("/posts", m.Handler.Create)
		auth.POST("/posts/:id/comments", m.Handler.AddComment)
		auth.POST("/posts/:id/like", m.Handler.ToggleLike)
	}
}
