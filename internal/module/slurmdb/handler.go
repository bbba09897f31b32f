package slurmdb

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	slurmdbc "trainjob/internal/pkg/client/slurmdb"
	"trainjob/internal/pkg/common/response"
	"trainjob/internal/pkg/model"
)

// HandlerGetAccountingJob 获取已记账作业详情, 包括最终状态与退出码.
//
// @Summary 获取作业记账信息
// @Description 查询 <cluster>_job_table 中 jobid 最近一次提交的记录; 状态与退出码已解码
// @Tags slurm-accounting, job
// @Produce json
// @Param jobid query int true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/accounting/job [get]
func HandlerGetAccountingJob(c *gin.Context) {
	client := slurmdbc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}

	jobid, err := strconv.ParseUint(strings.TrimSpace(c.Query("jobid")), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing or invalid jobid parameter"})
		return
	}

	job, err := client.GetJob(c.Request.Context(), uint32(jobid))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, response.Response{Detail: "job not found in accounting database"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Results: job.View()})
}

// HandlerListAccountingJobs 按作业名查询记账作业（分页）, 最新提交在前.
//
// @Summary 按作业名获取作业记账列表（分页）
// @Description 查询 <cluster>_job_table 中 job_name = name 的作业, 支持分页参数 page、page_size
// @Tags slurm-accounting, job
// @Produce json
// @Param name query string true "作业名"
// @Param page query int false "页码，从 1 开始"
// @Param page_size query int false "每页数量，1-100"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/accounting/jobs [get]
func HandlerListAccountingJobs(c *gin.Context) {
	client := slurmdbc.Default()
	if client == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmdb client not initialized"})
		return
	}

	var q model.JobsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid query parameters"})
		return
	}
	q.Name = strings.TrimSpace(q.Name)
	q.SetDefaults(1, 20, 100)
	if err := q.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "name is required, page and page_size must be positive"})
		return
	}

	jobs, total, err := client.GetJobsByNamePaged(c.Request.Context(), q.Name, q.Offset(), q.Limit())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	views := make([]model.JobView, 0, len(jobs))
	for _, j := range jobs {
		views = append(views, j.View())
	}
	prevURL, nextURL := response.BuildPageLinks(c.Request.URL, q.Page, q.PageSize, int(total))
	c.JSON(http.StatusOK, response.Response{
		Count:    response.IntPtr(int(total)),
		Previous: prevURL,
		Next:     nextURL,
		Results:  views,
	})
}
