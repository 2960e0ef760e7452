package server

import (
	"context"
	"time"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/utils"
)

// SubmitEntry returns as soon as the job row exists; extraction runs in the background.
func (s *CustodyService) SubmitEntry(ctx context.Context, req *pb.SubmitEntryRequest) (*pb.SubmitEntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID("entry_id", req.EntryId)
	if err != nil {
		return nil, err
	}
	job, err := s.proc.Submit(ctx, userID, entryID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &pb.SubmitEntryResponse{Job: utils.ToPBJob(job)}, nil
}

func (s *CustodyService) CancelJob(ctx context.Context, req *pb.CancelJobRequest) (*pb.CancelJobResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	jobID, err := parseID("job_id", req.JobId)
	if err != nil {
		return nil, err
	}
	job, err := s.proc.Cancel(ctx, userID, jobID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &pb.CancelJobResponse{Job: utils.ToPBJob(job)}, nil
}

func (s *CustodyService) GetJob(ctx context.Context, req *pb.GetJobRequest) (*pb.GetJobResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	jobID, err := parseID("job_id", req.JobId)
	if err != nil {
		return nil, err
	}
	job, err := s.store.Q().Jobs.GetForUser(ctx, userID, jobID)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &pb.GetJobResponse{Job: utils.ToPBJob(job)}, nil
}

// WatchJob sends the current state, then each transition, and returns after the first
// terminal state. It subscribes before reading so no transition falls in between.
func (s *CustodyService) WatchJob(req *pb.WatchJobRequest, stream pb.CustodyService_WatchJobServer) error {
	ctx := stream.Context()
	userID, err := userFrom(ctx)
	if err != nil {
		return err
	}
	jobID, err := parseID("job_id", req.JobId)
	if err != nil {
		return err
	}

	updates, cancel := s.sub.Subscribe(jobID)
	defer cancel()

	job, err := s.store.Q().Jobs.GetForUser(ctx, userID, jobID)
	if err != nil {
		return common.ToStatus(err)
	}
	if err := stream.Send(utils.ToPBJob(job)); err != nil {
		return err
	}
	last := job.Status
	s.logger.Info("rpc.watch.start", "job_id", jobID, "status", last)

	// re-read periodically in case a notification was dropped
	tick := time.NewTicker(s.watchHB)
	defer tick.Stop()
	for !last.Terminal() {
		select {
		case <-ctx.Done():
			return nil
		case j, ok := <-updates:
			if !ok {
				return nil
			}
			if j.Status == last {
				continue
			}
			cur, err := s.store.Q().Jobs.Get(ctx, jobID)
			if err != nil {
				return common.ToStatus(err)
			}
			if err := stream.Send(utils.ToPBJob(cur)); err != nil {
				return err
			}
			last = cur.Status
		case <-tick.C:
			cur, err := s.store.Q().Jobs.Get(ctx, jobID)
			if err != nil {
				return common.ToStatus(err)
			}
			if cur.Status != last {
				if err := stream.Send(utils.ToPBJob(cur)); err != nil {
					return err
				}
				last = cur.Status
			}
		}
	}
	return nil
}

func (s *CustodyService) ListEvents(ctx context.Context, req *pb.ListEventsRequest) (*pb.ListEventsResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	entryID, err := parseID("entry_id", req.EntryId)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Q().Entries.Get(ctx, userID, entryID); err != nil {
		return nil, common.ToStatus(err)
	}
	events, err := s.store.Q().Events.ListByEntry(ctx, userID, entryID)
	if err != nil {
		s.logger.Error("rpc.list_events.failed", "entry_id", entryID, "err", err)
		return nil, common.ToStatus(err)
	}
	out := make([]*pb.Event, 0, len(events))
	for i := range events {
		out = append(out, utils.ToPBEvent(&events[i]))
	}
	return &pb.ListEventsResponse{Events: out}, nil
}
