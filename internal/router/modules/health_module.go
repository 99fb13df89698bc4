package modules

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-user-admin/pkg/response"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthModule answers GET /health. It always returns 200 while the process
// serves requests; failing dependencies are reported as "degraded".
type HealthModule struct {
	Checks map[string]Check
}

func NewHealthModule(checks map[string]Check) *HealthModule {
	return &HealthModule{Checks: checks}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.health)
}

func (m *HealthModule) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	results := make(map[string]string, len(m.Checks))
	for name, check := range m.Checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = "degraded"
			continue
		}
		results[name] = "ok"
	}
	response.Success(c, http.StatusOK, gin.H{"status": status, "checks": results}, "health", nil)
}
