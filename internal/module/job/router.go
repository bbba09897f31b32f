package job

import (
	"github.com/gin-gonic/gin"

	"trainjob/internal/pkg/jobspec"
)

// Router serves one job spec, loaded once at start.
type Router struct {
	Spec jobspec.Spec
	// Scheduler defaults to slurmctl.Default().
	Scheduler Scheduler
}

func (rt Router) Register(r *gin.Engine) {
	h := &handler{spec: rt.Spec, scheduler: rt.Scheduler}
	v1 := r.Group("/api/v1/job")
	{
		v1.GET("/spec", h.getSpec)             // GET /api/v1/job/spec
		v1.GET("/directives", h.getDirectives) // GET /api/v1/job/directives
		v1.GET("/script", h.getScript)         // GET /api/v1/job/script
		v1.POST("/submit", h.submit)           // POST /api/v1/job/submit?dry_run=xxx&preflight=xxx
	}
}
