package slurmdb

import (
	"github.com/gin-gonic/gin"
)

type Router struct{}

func (rt Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/slurm/accounting")
	{
		v1.GET("/job", HandlerGetAccountingJob)    // GET /api/v1/slurm/accounting/job?jobid=xxx
		v1.GET("/jobs", HandlerListAccountingJobs) // GET /api/v1/slurm/accounting/jobs?name=xxx&page=xxx&page_size=xxx
	}
}
