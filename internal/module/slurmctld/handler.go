package slurmctld

import (
	"errors"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"trainjob/internal/pkg/client/slurmctl"
	slurmctlmodels "trainjob/internal/pkg/client/slurmctl/models"
	"trainjob/internal/pkg/common/response"
	"trainjob/internal/pkg/model"
)

// jobid 或 jobid_arrayid / jobid+hetid
var jobIDPattern = regexp.MustCompile(`^[0-9]+([_+][0-9]+)?$`)

// client returns the default slurmctl client or answers 500.
func client(c *gin.Context) *slurmctl.Client {
	cli := slurmctl.Default()
	if cli == nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmctl client not initialized"})
	}
	return cli
}

// jobID reads and checks the jobid query parameter or answers 400.
func jobID(c *gin.Context) (string, bool) {
	jobid := strings.TrimSpace(c.Query("jobid"))
	if jobid == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing jobid parameter"})
		return "", false
	}
	if !jobIDPattern.MatchString(jobid) {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid jobid parameter"})
		return "", false
	}
	return jobid, true
}

// paginate answers one page of list, or the whole list when paging=false.
func paginate[T any](c *gin.Context, list []T) {
	total := len(list)

	// 分页开关，默认 true
	var pagingFlag struct {
		Paging *bool `form:"paging"`
	}
	_ = c.ShouldBindQuery(&pagingFlag)
	if pagingFlag.Paging != nil && !*pagingFlag.Paging {
		c.JSON(http.StatusOK, response.Response{Count: response.IntPtr(total), Results: list})
		return
	}

	var pq model.PagingQuery
	if err := c.ShouldBindQuery(&pq); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}
	pq.SetDefaults(1, 20, 100)
	if err := pq.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid paging parameters"})
		return
	}
	start := min(pq.Offset(), total)
	end := min(start+pq.Limit(), total)
	prevURL, nextURL := response.BuildPageLinks(c.Request.URL, pq.Page, pq.PageSize, total)
	c.JSON(http.StatusOK, response.Response{
		Count:    response.IntPtr(total),
		Previous: prevURL,
		Next:     nextURL,
		Results:  list[start:end],
	})
}

// HandlerGetAllNodes 获取节点列表（可分页）, 用于确认分区内 GPU 资源.
//
// @Summary 获取节点列表
// @Description 通过 sinfo 获取节点信息, 按节点名排序; 支持分区过滤与分页
// @Tags slurm-scheduling, node
// @Produce json
// @Param partition query string false "分区, 多分区采用逗号分割" example("gpu")
// @Param paging query bool false "是否开启分页" default(true)
// @Param page query int false "页号(从1开始)" default(1) minimum(1)
// @Param page_size query int false "每页数量" default(20) minimum(1)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/node/all [get]
func HandlerGetAllNodes(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}

	nodesMap, err := cli.GetNodes(c.Request.Context(), strings.TrimSpace(c.Query("partition")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	// 按名称排序，便于稳定分页
	keys := make([]string, 0, len(nodesMap))
	for k := range nodesMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]*slurmctlmodels.Node, 0, len(keys))
	for _, k := range keys {
		list = append(list, nodesMap[k])
	}

	paginate(c, list)
}

// HandlerGetJob 获取调度队列中指定作业.
//
// @Summary 获取 Job 详情
// @Description 通过 squeue 查询作业; 已离开调度队列的作业返回 404, 请改查 accounting 接口
// @Tags slurm-scheduling, job
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/job [get]
func HandlerGetJob(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}
	jobid, ok := jobID(c)
	if !ok {
		return
	}

	job, err := cli.GetJob(c.Request.Context(), jobid)
	if errors.Is(err, slurmctl.ErrJobNotQueued) {
		c.JSON(http.StatusNotFound, response.Response{Detail: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Results: job})
}

// HandlerCancelJob 取消作业.
//
// @Summary 取消 Job
// @Description 通过 scancel 取消作业; 训练进程组收到 SIGTERM
// @Tags slurm-scheduling, job
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/job [delete]
func HandlerCancelJob(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}
	jobid, ok := jobID(c)
	if !ok {
		return
	}

	if err := cli.Cancel(c.Request.Context(), jobid); err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Detail: "job " + jobid + " cancelled"})
}

// HandlerGetStepsOfJob 获取指定 Job 的步骤列表.
//
// @Summary 获取 Job 的步骤列表
// @Description 通过 squeue -s 查询步骤信息，返回 stepid/stepname/stepstate
// @Tags slurm-scheduling, job
// @Produce json
// @Param jobid query string true "Job ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/job/steps [get]
func HandlerGetStepsOfJob(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}
	jobid, ok := jobID(c)
	if !ok {
		return
	}

	steps, err := cli.GetStepsOfJob(c.Request.Context(), jobid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Count: response.IntPtr(len(steps)), Results: steps})
}

// HandlerGetAllPartitions 获取所有分区详情（可分页）.
//
// @Summary 获取分区列表
// @Description 通过 scontrol show partition 获取所有分区信息；支持分页返回
// @Tags slurm-scheduling, partition
// @Produce json
// @Param paging query bool false "是否开启分页" default(true)
// @Param page query int false "页号(从1开始)" default(1) minimum(1)
// @Param page_size query int false "每页数量" default(20) minimum(1)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/partition/all [get]
func HandlerGetAllPartitions(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}

	parts, err := cli.GetPartitions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	paginate(c, parts)
}

// HandlerGetPartition 获取指定名称的分区详情.
//
// @Summary 获取分区详情
// @Description 通过 scontrol show partition <name> 返回该分区的字段信息
// @Tags slurm-scheduling, partition
// @Produce json
// @Param name query string true "分区名称"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /slurm/scheduling/partition [get]
func HandlerGetPartition(c *gin.Context) {
	cli := client(c)
	if cli == nil {
		return
	}

	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "missing name parameter"})
		return
	}

	part, err := cli.GetPartition(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	c.JSON(http.StatusOK, response.Response{Results: part})
}
