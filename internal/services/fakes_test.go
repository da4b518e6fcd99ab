package services

import (
	"context"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/yoockh/resumerank/internal/cache"
	"github.com/yoockh/resumerank/internal/models"
	"github.com/yoockh/resumerank/internal/scoring"
	"github.com/yoockh/resumerank/internal/utils"
	"gorm.io/datatypes"
)

type fakeUsers struct {
	mu   sync.Mutex
	byID map[string]*models.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{byID: map[string]*models.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return utils.ErrDuplicate
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (f *fakeUsers) UpdateFullName(_ context.Context, id string, fullName *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.FullName = fullName
	return nil
}

type fakeGuests struct {
	mu      sync.Mutex
	byToken map[string]*models.GuestSession
}

func newFakeGuests() *fakeGuests { return &fakeGuests{byToken: map[string]*models.GuestSession{}} }

func (f *fakeGuests) Create(_ context.Context, s *models.GuestSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.byToken[s.SessionToken] = &cp
	return nil
}

func (f *fakeGuests) GetByToken(_ context.Context, token string) (*models.GuestSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeGuests) UpdateData(_ context.Context, token string, data datatypes.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok {
		return utils.ErrNotFound
	}
	s.Data = data
	return nil
}

func (f *fakeGuests) MarkMigrated(_ context.Context, token, userID string, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok || s.MigratedToUserID != nil {
		return false, nil
	}
	s.MigratedToUserID = &userID
	s.MigratedAt = &at
	return true, nil
}

type fakeJobs struct {
	mu       sync.Mutex
	byID     map[string]*models.Job
	deleted  []string
	onDelete func(jobID string)
}

func newFakeJobs(jobs ...models.Job) *fakeJobs {
	f := &fakeJobs{byID: map[string]*models.Job{}}
	for i := range jobs {
		j := jobs[i]
		f.byID[j.ID] = &j
	}
	return f
}

func (f *fakeJobs) Create(_ context.Context, j *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Tag == j.Tag {
			return utils.ErrDuplicate
		}
	}
	cp := *j
	f.byID[j.ID] = &cp
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, id string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.byID[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobs) GetOwned(ctx context.Context, id, userID string) (*models.Job, error) {
	j, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, utils.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobs) ListByUser(_ context.Context, userID string) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Job
	for _, j := range f.byID {
		if j.UserID == userID {
			out = append(out, *j)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].CreatedAt.After(out[b].CreatedAt) })
	return out, nil
}

func (f *fakeJobs) ListAll(_ context.Context, _ int) ([]models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Job
	for _, j := range f.byID {
		out = append(out, *j)
	}
	return out, nil
}

func (f *fakeJobs) DeleteOwned(_ context.Context, id, userID string) error {
	f.mu.Lock()
	j, ok := f.byID[id]
	if !ok || j.UserID != userID {
		f.mu.Unlock()
		return utils.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	onDelete := f.onDelete
	f.mu.Unlock()
	if onDelete != nil {
		onDelete(id)
	}
	return nil
}

type fakeResumes struct {
	mu   sync.Mutex
	rows []*models.Resume
	seq  int
}

func (f *fakeResumes) Add(_ context.Context, r *models.Resume) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.JobID == r.JobID && row.Filename == r.Filename {
			return false, nil
		}
	}
	f.seq++
	cp := *r
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Unix(int64(f.seq), 0)
	}
	f.rows = append(f.rows, &cp)
	return true, nil
}

func (f *fakeResumes) Exists(_ context.Context, jobID, filename string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.JobID == jobID && row.Filename == filename {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResumes) ListUnscored(_ context.Context, jobID, userID string) ([]models.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Resume
	for _, row := range f.rows {
		if row.JobID == jobID && row.UserID == userID && row.Score == nil {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeResumes) SaveScore(_ context.Context, id string, res models.ScoreResult) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			if row.Score != nil {
				return false, nil
			}
			name, score, summary := res.Name, res.Score, res.Summary
			row.CandidateName, row.Score, row.Summary = &name, &score, &summary
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeResumes) Rankings(_ context.Context, jobID, userID string) ([]models.Ranking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*models.Resume
	for _, row := range f.rows {
		if row.JobID == jobID && row.UserID == userID {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ra, rb := rows[a], rows[b]
		switch {
		case ra.Score == nil && rb.Score == nil:
		case ra.Score == nil:
			return false
		case rb.Score == nil:
			return true
		case *ra.Score != *rb.Score:
			return *ra.Score > *rb.Score
		}
		if !ra.CreatedAt.Equal(rb.CreatedAt) {
			return ra.CreatedAt.Before(rb.CreatedAt)
		}
		return ra.ID < rb.ID
	})
	out := make([]models.Ranking, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Ranking{ResumeID: r.ID, Filename: r.Filename, CandidateName: r.CandidateName, Score: r.Score, Summary: r.Summary})
	}
	return out, nil
}

func (f *fakeResumes) SetFilePath(_ context.Context, id, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			row.FilePath = path
			return nil
		}
	}
	return utils.ErrNotFound
}

func (f *fakeResumes) CountByJob(_ context.Context, jobID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if row.JobID == jobID {
			n++
		}
	}
	return n, nil
}

func (f *fakeResumes) get(id string) *models.Resume {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			cp := *row
			return &cp
		}
	}
	return nil
}

// fakeOracle answers from a function of the resume text.
type fakeOracle struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, resumeText string) scoring.Result
}

func (f *fakeOracle) Score(ctx context.Context, resumeText, _ string) scoring.Result {
	f.mu.Lock()
	f.calls = append(f.calls, resumeText)
	f.mu.Unlock()
	return f.fn(ctx, resumeText)
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

var _ cache.Cache = (*mapCache)(nil)

func (c *mapCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *mapCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *mapCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *mapCache) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if b, ok := c.data[key]; ok {
		if err := json.Unmarshal(b, &n); err != nil {
			return 0, err
		}
	}
	n++
	b, _ := json.Marshal(n)
	c.data[key] = b
	return n, nil
}

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

type fakePublisher struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (p *fakePublisher) Publish(_ context.Context, ev models.ProgressEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeArchive struct {
	mu   sync.Mutex
	logs []models.AnalysisLog
}

func (a *fakeArchive) Insert(_ context.Context, l *models.AnalysisLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, *l)
	return nil
}

func (a *fakeArchive) ListByJob(_ context.Context, jobID string, _ int64) ([]models.AnalysisLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AnalysisLog
	for _, l := range a.logs {
		if l.JobID == jobID {
			out = append(out, l)
		}
	}
	return out, nil
}

// textExtractor treats file bytes as text; names containing "corrupt" and non-UTF-8 bytes fail.
type textExtractor struct{}

func (textExtractor) Extract(filename string, data []byte) (string, error) {
	if strings.Contains(filename, "corrupt") || !utf8.Valid(data) {
		return "", io.ErrUnexpectedEOF
	}
	return string(data), nil
}

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (u *fakeUploader) Upload(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = map[string][]byte{}
	}
	u.objects[objectName] = b
	return "mem://" + objectName, nil
}

func (u *fakeUploader) Close() error { return nil }

type fakeQueue struct {
	queued [][2]string
}

func (q *fakeQueue) Enqueue(_ context.Context, jobID, userID string) (string, error) {
	q.queued = append(q.queued, [2]string{jobID, userID})
	return "1-0", nil
}
