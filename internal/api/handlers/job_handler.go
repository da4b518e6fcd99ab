package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/services"
)

type JobHandler struct {
	svc services.JobService
}

func NewJobHandler(svc services.JobService) *JobHandler {
	return &JobHandler{svc: svc}
}

type JobResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
}

type AdminJobResponse struct {
	JobResponse
	UserID string `json:"userId"`
}

func toJobResponse(j models.Job) JobResponse {
	return JobResponse{ID: j.ID, Title: j.Title, Tag: j.Tag, CreatedAt: j.CreatedAt}
}

// Create takes title, tag and requirements as query parameters.
func (h *JobHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	job, err := h.svc.Create(c.Request.Context(), userID, c.Query("title"), c.Query("tag"), c.Query("requirements"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"jobId": job.ID})
}

func (h *JobHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	jobs, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]JobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (h *JobHandler) ListAll(c *gin.Context) {
	jobs, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]AdminJobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, AdminJobResponse{JobResponse: toJobResponse(j), UserID: j.UserID})
	}
	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

func (h *JobHandler) Delete(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, "JobHandler.Delete")
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), jobID, userID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true, "jobId": jobID})
}
