package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/services"
	"github.com/yoockh/resumerank/internal/utils"
)

const (
	ownerID = "11111111-1111-1111-1111-111111111111"
	jobID   = "33333333-3333-3333-3333-333333333333"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newRouter returns an engine that authenticates every request as userID when it is non-empty.
func newRouter(userID string) *gin.Engine {
	r := gin.New()
	if userID != "" {
		r.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
			c.Next()
		})
	}
	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type stubAuth struct {
	register func(email, password string, fullName *string) (*services.AuthResult, error)
	login    func(email, password string) (*services.AuthResult, error)
	refresh  func(tok string) (string, error)
	user     *models.User
}

func (s *stubAuth) Register(_ context.Context, email, password string, fullName *string) (*services.AuthResult, error) {
	return s.register(email, password, fullName)
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*services.AuthResult, error) {
	return s.login(email, password)
}

func (s *stubAuth) Refresh(_ context.Context, tok string) (string, error) { return s.refresh(tok) }

func (s *stubAuth) Me(_ context.Context, userID string) (*models.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, utils.E(utils.CodeNotFound, "stub", "user not found", nil)
	}
	return s.user, nil
}

func (s *stubAuth) UpdateProfile(_ context.Context, userID string, fullName *string) (*models.User, error) {
	u, err := s.Me(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	u.FullName = fullName
	return u, nil
}

type stubGuests struct {
	sessions   map[string]*models.GuestSession
	migrateErr error
	migrated   map[string]string
	updated    map[string]json.RawMessage
}

func newStubGuests() *stubGuests {
	return &stubGuests{
		sessions: map[string]*models.GuestSession{},
		migrated: map[string]string{},
		updated:  map[string]json.RawMessage{},
	}
}

func (s *stubGuests) Create(context.Context) (*models.GuestSession, error) {
	g := &models.GuestSession{ID: "g1", SessionToken: "tok-1", Data: []byte(`{}`)}
	s.sessions[g.SessionToken] = g
	return g, nil
}

func (s *stubGuests) Get(_ context.Context, tok string) (*models.GuestSession, error) {
	g, ok := s.sessions[tok]
	if !ok {
		return nil, utils.E(utils.CodeNotFound, "stub", "guest session not found", nil)
	}
	return g, nil
}

func (s *stubGuests) UpdateData(_ context.Context, tok string, data json.RawMessage) error {
	if _, ok := s.sessions[tok]; !ok {
		return utils.E(utils.CodeNotFound, "stub", "guest session not found", nil)
	}
	if !json.Valid(data) {
		return utils.E(utils.CodeInvalidArgument, "stub", "data must be valid JSON", nil)
	}
	s.updated[tok] = data
	return nil
}

func (s *stubGuests) Migrate(_ context.Context, tok, userID string) error {
	if s.migrateErr != nil {
		return s.migrateErr
	}
	s.migrated[tok] = userID
	return nil
}

type stubJobs struct {
	jobs     map[string]models.Job
	rankings []models.Ranking
	created  []models.Job
	deleted  []string
}

func newStubJobs(jobs ...models.Job) *stubJobs {
	s := &stubJobs{jobs: map[string]models.Job{}}
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return s
}

func (s *stubJobs) Create(_ context.Context, userID, title, tag, requirements string) (*models.Job, error) {
	for _, j := range s.jobs {
		if j.Tag == tag {
			return nil, utils.E(utils.CodeConflict, "stub", "job tag already exists", nil)
		}
	}
	j := models.Job{ID: "new-job", Title: title, Tag: tag, Requirements: requirements, UserID: userID}
	s.jobs[j.ID] = j
	s.created = append(s.created, j)
	return &j, nil
}

func (s *stubJobs) List(_ context.Context, userID string) ([]models.Job, error) {
	var out []models.Job
	for _, j := range s.jobs {
		if j.UserID == userID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (s *stubJobs) ListAll(context.Context) ([]models.Job, error) {
	var out []models.Job
	for _, j := range s.jobs {
		out = append(out, j)
	}
	return out, nil
}

func (s *stubJobs) Owned(_ context.Context, id, userID string) (*models.Job, error) {
	j, ok := s.jobs[id]
	if !ok || j.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, "stub", "job not accessible", nil)
	}
	return &j, nil
}

func (s *stubJobs) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.Owned(ctx, id, userID); err != nil {
		return err
	}
	delete(s.jobs, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubJobs) Rankings(ctx context.Context, id, userID string) ([]models.Ranking, error) {
	if _, err := s.Owned(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.rankings, nil
}

type stubUploads struct {
	got []services.UploadFile
	res *services.UploadResult
}

func (s *stubUploads) Upload(_ context.Context, _, _ string, files []services.UploadFile) (*services.UploadResult, error) {
	s.got = files
	return s.res, nil
}

type stubAnalysis struct {
	result  *services.AnalysisResult
	err     error
	history []models.AnalysisLog
	limit   int64
}

func (s *stubAnalysis) AnalyzeJob(context.Context, string, string) (*services.AnalysisResult, error) {
	return s.result, s.err
}

func (s *stubAnalysis) Enqueue(context.Context, string, string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "1700000000000-0", nil
}

func (s *stubAnalysis) History(_ context.Context, _, _ string, limit int64) ([]models.AnalysisLog, error) {
	s.limit = limit
	return s.history, s.err
}
