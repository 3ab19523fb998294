package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/dbx"
	"github.com/dmitrijs2005/docrelay/internal/server/config"
	"github.com/dmitrijs2005/docrelay/internal/server/mediastore"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/rules"
	"github.com/dmitrijs2005/docrelay/internal/server/repositories/uploads"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Unix(1700000000, 0)

type fakeUploads struct {
	records []*models.UploadRecord

	listErr       error
	deleteManyErr error
	createErr     error
	getErr        error
	deleteErr     error

	// onDeleteMany runs before DeleteByIDs records its call.
	onDeleteMany func()

	listCalls  int
	lastFilter models.UploadFilter
	deletedIDs [][]string
	created    *models.UploadRecord
	deletedID  string
}

func (f *fakeUploads) Create(_ context.Context, rec *models.UploadRecord) (*models.UploadRecord, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	cp := *rec
	cp.ID = "new-id"
	cp.CreatedAt = fixedNow
	cp.UpdatedAt = fixedNow
	f.created = &cp
	return &cp, nil
}

func (f *fakeUploads) List(_ context.Context, filter models.UploadFilter) ([]*models.UploadRecord, error) {
	f.listCalls++
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeUploads) GetByID(_ context.Context, id string) (*models.UploadRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUploads) DeleteByID(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedID = id
	return nil
}

func (f *fakeUploads) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	if f.onDeleteMany != nil {
		f.onDeleteMany()
	}
	f.deletedIDs = append(f.deletedIDs, ids)
	if f.deleteManyErr != nil {
		return 0, f.deleteManyErr
	}
	return int64(len(ids)), nil
}

type fakeRules struct {
	rulesErr   error
	ragErr     error
	rulesCalls int
	ragCalls   int
}

func (f *fakeRules) ClearRules(context.Context) (int64, error) {
	f.rulesCalls++
	return 3, f.rulesErr
}

func (f *fakeRules) ClearRAGRules(context.Context) (int64, error) {
	f.ragCalls++
	return 5, f.ragErr
}

type fakeRepoManager struct {
	uploads *fakeUploads
	rules   *fakeRules
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Uploads(dbx.DBTX) uploads.Repository          { return m.uploads }
func (m *fakeRepoManager) Rules(dbx.DBTX) rules.Repository              { return m.rules }

type fakeStore struct {
	mu    sync.Mutex
	fail  map[string]error
	delay map[string]time.Duration
	calls []string

	inFlight atomic.Int32
}

// Destroy records key once the call completes.
func (s *fakeStore) Destroy(_ context.Context, key string) error {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	d := s.delay[key]
	s.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, key)
	return s.fail[key]
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakePresignStore is a backend that authorizes uploads with presigned URLs.
type fakePresignStore struct {
	fakeStore
	err  error
	keys []string
}

func (s *fakePresignStore) PresignUpload(_ context.Context, key string) (*mediastore.PresignedUpload, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.keys = append(s.keys, key)
	return &mediastore.PresignedUpload{
		URL:       "https://docs.s3/" + key + "?X-Amz-Signature=x",
		Method:    "PUT",
		ExpiresAt: fixedNow.Add(15 * time.Minute),
	}, nil
}

type fixture struct {
	svc     *UploadService
	mock    sqlmock.Sqlmock
	uploads *fakeUploads
	rules   *fakeRules
	store   *fakeStore
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.CloudName = "demo"
	cfg.APIKey = "123456"
	cfg.APISecret = "s3cr3t"
	cfg.ClearConcurrency = 2
	return cfg
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		mock:    mock,
		uploads: &fakeUploads{},
		rules:   &fakeRules{},
		store:   &fakeStore{fail: map[string]error{}, delay: map[string]time.Duration{}},
	}
	svc, err := NewUploadService(db, &fakeRepoManager{uploads: f.uploads, rules: f.rules}, f.store, testConfig(), nil, nil)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func rulesRecord(id, key string) *models.UploadRecord {
	return &models.UploadRecord{
		ID:           id,
		UserID:       "u-1",
		Category:     models.CategoryRulesUpload,
		StorageKey:   key,
		UploadStatus: models.StatusCompleted,
	}
}

var errBoom = errors.New("boom")
