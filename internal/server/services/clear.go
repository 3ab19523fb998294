package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/docrelay/internal/common"
	"github.com/dmitrijs2005/docrelay/internal/dbx"
	"github.com/dmitrijs2005/docrelay/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// Stage names reported in ClearResult.DBErrors.
const (
	StageSelectUploads = "select_uploads"
	StageDeleteUploads = "delete_uploads"
	StageBeginTx       = "begin_tx"
	StageRules         = "rules"
	StageRAGRules      = "rag_rules"
	StageCommitTx      = "commit_tx"
)

// ClearCategory resets a category for userID: remote objects, then upload
// rows, then every row of the derived rule tables. Only the derived tables
// are fatal; the other stages log and continue, leaving an orphaned object
// or a stale row at worst.
//
// The derived tables are cleared regardless of owner.
func (s *UploadService) ClearCategory(ctx context.Context, userID string, category models.Category) (*models.ClearResult, error) {
	log := s.log.With("user_id", userID, "category", category)
	result := &models.ClearResult{RemoteDeleteFailures: []string{}, DBErrors: []string{}}
	uploads := s.repomanager.Uploads(s.db)

	records, err := uploads.List(ctx, models.UploadFilter{UserID: userID, Category: category})
	if err != nil {
		log.Error(ctx, "failed to list records for clear", "error", err)
		result.DBErrors = append(result.DBErrors, StageSelectUploads)
		records = nil
	}
	result.RecordsFound = len(records)

	result.RemoteDeleteFailures = s.destroyAll(ctx, records)

	if len(records) > 0 {
		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		if n, err := uploads.DeleteByIDs(ctx, ids); err != nil {
			log.Error(ctx, "failed to delete upload records", "error", err, "count", len(ids))
			result.DBErrors = append(result.DBErrors, StageDeleteUploads)
		} else {
			log.Debug(ctx, "upload records deleted", "count", n)
		}
	}

	if stage, err := s.clearDerived(ctx); err != nil {
		log.Error(ctx, "failed to clear derived rules", "stage", stage, "error", err)
		result.DBErrors = append(result.DBErrors, stage)
		s.metrics.RecordClear(result.RecordsFound, len(result.RemoteDeleteFailures), err)
		return result, &common.ClearFailureError{Stages: []string{stage}, Err: err}
	}

	s.metrics.RecordClear(result.RecordsFound, len(result.RemoteDeleteFailures), nil)
	return result, nil
}

// destroyAll deletes every remote object concurrently and returns the keys
// that failed, sorted.
func (s *UploadService) destroyAll(ctx context.Context, records []*models.UploadRecord) []string {
	var (
		mu     sync.Mutex
		failed = []string{}
		g      errgroup.Group
	)
	if s.clearConcurrency > 0 {
		g.SetLimit(s.clearConcurrency)
	}

	for _, rec := range records {
		if rec.StorageKey == "" {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := s.store.Destroy(ctx, rec.StorageKey)
			s.metrics.RecordRemoteDestroy(time.Since(start), err)
			if err != nil {
				s.log.Warn(ctx, "remote object left behind", "public_id", rec.StorageKey, "error", err)
				mu.Lock()
				failed = append(failed, rec.StorageKey)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return failed
}

// clearDerived empties rules and rag_rules in one transaction and names the
// stage that failed. Both tables are cleared for every user; derived rows
// carry no owner column.
//
// Unlike independent per-statement deletes, a failure on rag_rules also
// rolls back the rules delete.
func (s *UploadService) clearDerived(ctx context.Context) (string, error) {
	stage := StageBeginTx
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Rules(tx)
		stage = StageRules
		if _, err := repo.ClearRules(ctx); err != nil {
			return err
		}
		stage = StageRAGRules
		if _, err := repo.ClearRAGRules(ctx); err != nil {
			return err
		}
		stage = StageCommitTx
		return nil
	})
	return stage, err
}
