package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/matrixnet/social-service/internal/interface/http"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/pkg/helpers"
)

// UploadModule mounts the file upload route, session required.
type UploadModule struct {
	Handler *handlers.UploadHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func (m *UploadModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.POST("/upload", m.Handler.Upload)
}
