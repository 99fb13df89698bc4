package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-user-admin/internal/interface/http"
	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
)

// UserModule serves the user administration API under /users:
//
//	GET    /users
//	POST   /users
//	GET    /users/email-exists?email=
//	GET    /users/:id
//	PUT    /users/:id
//	DELETE /users/:id
type UserModule struct {
	Handler   *handlers.UserHandler
	Limiter   redis.Scripter
	PerMinute int
}

// NewUserModule rate limits per client and route when rdb is not nil.
func NewUserModule(h *handlers.UserHandler, rdb *redis.Client, perMinute int) *UserModule {
	m := &UserModule{Handler: h, PerMinute: perMinute}
	if rdb != nil {
		m.Limiter = rdb
	}
	return m
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.RateLimit(m.Limiter, m.PerMinute, time.Minute, middleware.KeyByIPAndPath(), nil))
	{
		users.GET("", m.Handler.List)
		users.POST("", m.Handler.Create)
		users.GET("/email-exists", m.Handler.EmailExists)
		users.GET("/:id", m.Handler.Get)
		users.PUT("/:id", m.Handler.Update)
		users.DELETE("/:id", m.Handler.Deactivate)
	}
}
