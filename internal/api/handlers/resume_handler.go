package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/utils"
)

// multipartMemory is the in-memory part of a parsed upload; the rest spills to temp files.
const multipartMemory = 32 << 20

type ResumeHandler struct {
	jobs     services.JobService
	uploads  services.UploadService
	analysis services.AnalysisService
	maxBytes int64
}

func NewResumeHandler(jobs services.JobService, uploads services.UploadService, analysis services.AnalysisService, maxFileBytes int64) *ResumeHandler {
	return &ResumeHandler{jobs: jobs, uploads: uploads, analysis: analysis, maxBytes: maxFileBytes}
}

type RankingResponse struct {
	Filename      string  `json:"filename"`
	CandidateName *string `json:"candidateName"`
	Score         *int    `json:"score"`
	Summary       *string `json:"summary"`
}

func (h *ResumeHandler) Upload(c *gin.Context) {
	const op = "ResumeHandler.Upload"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, op)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid multipart form", err))
		return
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = c.Request.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no files uploaded", nil))
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		data, err := h.readPart(fh)
		if err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read "+fh.Filename, err))
			return
		}
		files = append(files, services.UploadFile{Filename: fh.Filename, Data: data})
	}

	res, err := h.uploads.Upload(c.Request.Context(), jobID, userID, files)
	if err != nil {
		writeError(c, err)
		return
	}
	if res.Failed == nil {
		res.Failed = []services.UploadFailure{}
	}
	c.JSON(http.StatusOK, res)
}

// readPart reads at most maxBytes+1 so oversize files are detected without buffering them whole.
func (h *ResumeHandler) readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxBytes > 0 {
		r = io.LimitReader(f, h.maxBytes+1)
	}
	return io.ReadAll(r)
}

func (h *ResumeHandler) Analyze(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, "ResumeHandler.Analyze")
	if !ok {
		return
	}

	res, err := h.analysis.AnalyzeJob(c.Request.Context(), jobID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ResumeHandler) AnalyzeAsync(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, "ResumeHandler.AnalyzeAsync")
	if !ok {
		return
	}

	msgID, err := h.analysis.Enqueue(c.Request.Context(), jobID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID, "messageId": msgID})
}

func (h *ResumeHandler) Rankings(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, "ResumeHandler.Rankings")
	if !ok {
		return
	}

	rows, err := h.jobs.Rankings(c.Request.Context(), jobID, userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": toRankingResponses(rows)})
}

func toRankingResponses(rows []models.Ranking) []RankingResponse {
	out := make([]RankingResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, RankingResponse{
			Filename:      r.Filename,
			CandidateName: r.CandidateName,
			Score:         r.Score,
			Summary:       r.Summary,
		})
	}
	return out
}

func (h *ResumeHandler) ExportCSV(c *gin.Context) {
	const op = "ResumeHandler.ExportCSV"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, op)
	if !ok {
		return
	}

	rows, err := h.jobs.Rankings(c.Request.Context(), jobID, userID)
	if err != nil {
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteRankingsCSV(&buf, rows); err != nil {
		writeError(c, utils.E(utils.CodeInternal, op, "failed to render csv", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="rankings_%s.csv"`, jobID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *ResumeHandler) AnalysisLog(c *gin.Context) {
	const op = "ResumeHandler.AnalysisLog"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	jobID, ok := requireJobID(c, op)
	if !ok {
		return
	}

	var limit int64
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid limit", err))
			return
		}
		limit = n
	}

	entries, err := h.analysis.History(c.Request.Context(), jobID, userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []models.AnalysisLog{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
