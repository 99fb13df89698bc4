package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-user-admin/internal/interface/middleware"
)

// DebugModule exposes expvar metrics, including the user_operations counters,
// to private networks only.
type DebugModule struct {
	Limiter redis.Scripter
}

func NewDebugModule(rdb *redis.Client) *DebugModule {
	m := &DebugModule{}
	if rdb != nil {
		m.Limiter = rdb
	}
	return m
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(m.Limiter, 120, time.Minute, middleware.KeyByIPAndPath(), nil)
	rg.GET("/debug/vars", middleware.RequireAllowed(middleware.AllowPrivateIP()), rl, gin.WrapH(expvar.Handler()))
}
