package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

// CommitRequest is everything a successful extraction writes.
type CommitRequest struct {
	Job           entity.ExtractionJob
	Events        []entity.Event
	ActionItems   []entity.ActionItem
	EvidenceIDs   []uuid.UUID // evidence that fed the prompt
	RawExtraction json.RawMessage
}

// CommitExtraction writes events, action items, evidence flags, the entry outcome and
// the completed job in one transaction. When the job is no longer processing nothing is
// written and the error matches common.ErrConflict.
func (s *Store) CommitExtraction(ctx context.Context, req CommitRequest) (*entity.ExtractionJob, error) {
	var done *entity.ExtractionJob
	err := s.InTx(ctx, func(ctx context.Context, q *Queries) error {
		at := s.now()
		if err := q.Events.Insert(ctx, req.Events); err != nil {
			return err
		}
		if err := q.ActionItems.Insert(ctx, req.ActionItems); err != nil {
			return err
		}
		if _, err := q.Evidence.MarkProcessed(ctx, req.EvidenceIDs); err != nil {
			return err
		}

		entryStatus := constants.EntryStatusCompleted
		if len(req.Events) > 0 {
			entryStatus = constants.EntryStatusReview
		}
		if err := q.Entries.Complete(ctx, req.Job.JournalEntryID, entryStatus, req.RawExtraction, at); err != nil {
			return err
		}

		summary := entity.ResultSummary{
			EventsCreated:      len(req.Events),
			EvidenceProcessed:  len(req.EvidenceIDs),
			ActionItemsCreated: len(req.ActionItems),
			EventIDs:           make([]uuid.UUID, 0, len(req.Events)),
		}
		for _, e := range req.Events {
			summary.EventIDs = append(summary.EventIDs, e.ID)
		}
		if err := q.Jobs.Complete(ctx, req.Job.ID, summary, at); err != nil {
			return err
		}
		job, err := q.Jobs.Get(ctx, req.Job.ID)
		if err != nil {
			return err
		}
		done = job
		return nil
	})
	if err != nil {
		level := s.log.Error
		if errors.Is(err, common.ErrConflict) {
			level = s.log.Warn
		}
		level("job.commit.failed", "job_id", req.Job.ID, "err", err)
		return nil, err
	}
	s.log.Info("job.commit.ok", "job_id", done.ID,
		"events", done.ResultSummary.EventsCreated,
		"action_items", done.ResultSummary.ActionItemsCreated)
	return done, nil
}

// ClaimJob moves a pending job to processing and returns the claimed row. It returns
// nil when the job was not pending. The claim and the read share a transaction, so a
// failed read leaves the job pending for redelivery.
func (s *Store) ClaimJob(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	var job *entity.ExtractionJob
	err := s.InTx(ctx, func(ctx context.Context, q *Queries) error {
		claimed, err := q.Jobs.Claim(ctx, id)
		if err != nil || !claimed {
			return err
		}
		job, err = q.Jobs.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}
