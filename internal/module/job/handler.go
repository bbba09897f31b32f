package job

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"trainjob/internal/pkg/batch"
	"trainjob/internal/pkg/client/slurmctl"
	"trainjob/internal/pkg/client/slurmctl/models"
	"trainjob/internal/pkg/common/response"
	"trainjob/internal/pkg/jobspec"
	"trainjob/internal/pkg/launcher"
)

// Scheduler submits scripts and answers preflight queries.
type Scheduler interface {
	launcher.Cluster
	Submit(ctx context.Context, script []byte, extraArgs ...string) (*models.Submission, error)
}

type handler struct {
	spec      jobspec.Spec
	scheduler Scheduler
}

func (h *handler) client(c *gin.Context) Scheduler {
	if h.scheduler != nil {
		return h.scheduler
	}
	if cli := slurmctl.Default(); cli != nil {
		return cli
	}
	c.JSON(http.StatusInternalServerError, response.Response{Detail: "slurmctl client not initialized"})
	return nil
}

// getSpec 返回当前作业描述.
//
// @Summary 获取作业描述
// @Description 返回资源请求、环境准备与训练参数
// @Tags job
// @Produce json
// @Success 200 {object} response.Response
// @Router /job/spec [get]
func (h *handler) getSpec(c *gin.Context) {
	c.JSON(http.StatusOK, response.Response{Results: h.spec})
}

// getDirectives 返回调度指令.
//
// @Summary 获取调度指令
// @Description 按固定顺序返回 #SBATCH 指令
// @Tags job
// @Produce json
// @Success 200 {object} response.Response
// @Router /job/directives [get]
func (h *handler) getDirectives(c *gin.Context) {
	directives := h.spec.Resources.Directives()
	lines := make([]string, len(directives))
	for i, d := range directives {
		lines[i] = d.String()
	}
	c.JSON(http.StatusOK, response.Response{Count: response.IntPtr(len(lines)), Results: lines})
}

// getScript 返回批处理脚本.
//
// @Summary 获取批处理脚本
// @Description 渲染完整的 sbatch 脚本
// @Tags job
// @Produce plain
// @Success 200 {string} string
// @Failure 500 {object} response.Response
// @Router /job/script [get]
func (h *handler) getScript(c *gin.Context) {
	script, err := batch.Render(h.spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.Data(http.StatusOK, batch.ContentType, script)
}

type submitQuery struct {
	DryRun    bool `form:"dry_run"`
	Preflight bool `form:"preflight"`
}

// submit 提交作业.
//
// @Summary 提交作业
// @Description 渲染脚本并通过 sbatch 提交; preflight 检查分区与 GPU, dry_run 只做检查不提交
// @Tags job
// @Produce json
// @Param dry_run query bool false "只检查不提交" default(false)
// @Param preflight query bool false "提交前检查分区状态与 GPU 类型" default(false)
// @Success 200 {object} response.Response
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /job/submit [post]
func (h *handler) submit(c *gin.Context) {
	var q submitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.Response{Detail: "invalid query parameters"})
		return
	}

	script, err := batch.Render(h.spec)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}

	if !q.Preflight && q.DryRun {
		c.JSON(http.StatusOK, response.Response{Detail: "dry run, script rendered"})
		return
	}
	cli := h.client(c)
	if cli == nil {
		return
	}
	if q.Preflight {
		if err := launcher.Preflight(c.Request.Context(), cli, h.spec, false); err != nil {
			c.JSON(http.StatusUnprocessableEntity, response.Response{Detail: err.Error()})
			return
		}
	}
	if q.DryRun {
		c.JSON(http.StatusOK, response.Response{Detail: "dry run, preflight passed"})
		return
	}

	sub, err := cli.Submit(c.Request.Context(), script)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Response{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, response.Response{Results: sub})
}
