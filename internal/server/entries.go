package server

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/custody-tracker/constants"
	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/auth"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/repository"
	"github.com/joseph-ayodele/custody-tracker/internal/utils"
)

// CreateUser registers a journal author and returns a bearer token for them.
func (s *CustodyService) CreateUser(ctx context.Context, req *pb.CreateUserRequest) (*pb.CreateUserResponse, error) {
	if err := validateCreateUser(req); err != nil {
		return nil, common.ToStatus(err)
	}
	u := &entity.User{DisplayName: strings.TrimSpace(req.DisplayName), Timezone: strings.TrimSpace(req.Timezone)}
	if err := s.store.Q().Users.Create(ctx, u); err != nil {
		s.logger.Error("rpc.create_user.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	token, err := auth.GenerateToken(u.ID, s.secret, s.ttl)
	if err != nil {
		s.logger.Error("rpc.create_user.token_failed", "user_id", u.ID, "err", err)
		return nil, status.Error(codes.Internal, "issue token")
	}
	s.logger.Info("rpc.create_user.ok", "user_id", u.ID)
	return &pb.CreateUserResponse{User: utils.ToPBUser(u), Token: token}, nil
}

func (s *CustodyService) CreateCase(ctx context.Context, req *pb.CreateCaseRequest) (*pb.CreateCaseResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCreateCase(req); err != nil {
		return nil, common.ToStatus(err)
	}
	c := utils.FromPBCase(req.Case)
	c.UserID = userID
	if err := s.store.Q().Cases.Create(ctx, c); err != nil {
		s.logger.Error("rpc.create_case.failed", "user_id", userID, "err", err)
		return nil, common.ToStatus(err)
	}
	return &pb.CreateCaseResponse{Case: utils.ToPBCase(c)}, nil
}

func (s *CustodyService) CreateEntry(ctx context.Context, req *pb.CreateEntryRequest) (*pb.CreateEntryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCreateEntry(req); err != nil {
		return nil, common.ToStatus(err)
	}
	caseID, err := optionalID("case_id", req.CaseId)
	if err != nil {
		return nil, err
	}
	if caseID != nil {
		if _, err := s.store.Q().Cases.Get(ctx, userID, *caseID); err != nil {
			return nil, common.ToStatus(err)
		}
	}
	e := &entity.JournalEntry{
		UserID:        userID,
		CaseID:        caseID,
		Text:          req.Text,
		ReferenceDate: optionalStr(req.ReferenceDate),
	}
	if err := s.store.Q().Entries.Create(ctx, e); err != nil {
		s.logger.Error("rpc.create_entry.failed", "user_id", userID, "err", err)
		return nil, common.ToStatus(err)
	}
	s.logger.Info("rpc.create_entry.ok", "user_id", userID, "entry_id", e.ID)
	return &pb.CreateEntryResponse{Entry: utils.ToPBEntry(e)}, nil
}

func (s *CustodyService) AddEvidence(ctx context.Context, req *pb.AddEvidenceRequest) (*pb.AddEvidenceResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateAddEvidence(req); err != nil {
		return nil, common.ToStatus(err)
	}
	entryID, err := parseID("entry_id", req.EntryId)
	if err != nil {
		return nil, err
	}
	source := constants.SourceFromExt(filepath.Ext(req.StorageRef))
	if parsed, ok := constants.ParseEvidenceSource(req.SourceType); ok {
		source = parsed
	}
	if _, err := s.store.Q().Entries.Get(ctx, userID, entryID); err != nil {
		return nil, common.ToStatus(err)
	}

	item := &entity.EvidenceItem{
		JournalEntryID: entryID,
		SourceType:     source,
		StorageRef:     req.StorageRef,
		Summary:        optionalStr(req.Summary),
		Annotation:     optionalStr(req.Annotation),
		Tags:           req.Tags,
		SortOrder:      req.SortOrder,
	}
	item.Processed = item.Summary != nil
	if err := s.store.Q().Evidence.Create(ctx, item); err != nil {
		s.logger.Error("rpc.add_evidence.failed", "entry_id", entryID, "err", err)
		return nil, common.ToStatus(err)
	}
	return &pb.AddEvidenceResponse{Evidence: utils.ToPBEvidence(item)}, nil
}

func (s *CustodyService) SetEvidenceSummary(ctx context.Context, req *pb.SetEvidenceSummaryRequest) (*pb.SetEvidenceSummaryResponse, error) {
	userID, err := userFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateSetEvidenceSummary(req); err != nil {
		return nil, common.ToStatus(err)
	}
	entryID, err := parseID("entry_id", req.EntryId)
	if err != nil {
		return nil, err
	}
	evidenceID, err := parseID("evidence_id", req.EvidenceId)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Q().Entries.Get(ctx, userID, entryID); err != nil {
		return nil, common.ToStatus(err)
	}

	var updated *entity.EvidenceItem
	err = s.store.InTx(ctx, func(ctx context.Context, q *repository.Queries) error {
		items, err := q.Evidence.ListByEntry(ctx, entryID)
		if err != nil {
			return err
		}
		idx := indexOf(items, evidenceID)
		if idx < 0 {
			return common.NotFound("evidence not found")
		}
		if err := q.Evidence.SetSummary(ctx, evidenceID, strings.TrimSpace(req.Summary)); err != nil {
			return err
		}
		updated = &items[idx]
		updated.Summary = optionalStr(req.Summary)
		updated.Processed = updated.Summary != nil
		return nil
	})
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return &pb.SetEvidenceSummaryResponse{Evidence: utils.ToPBEvidence(updated)}, nil
}

func indexOf(items []entity.EvidenceItem, id uuid.UUID) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
