package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/user-auth-api/internal/models"
	"github.com/noah-isme/user-auth-api/pkg/jobs"
)

const auditJobType = "audit_log"

type auditWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

type auditQueue interface {
	Enqueue(job jobs.Job) error
}

// AuditService records security-relevant events. When a queue is attached, writes happen off
// the request path; otherwise they are written inline.
type AuditService struct {
	repo   auditWriter
	queue  auditQueue
	logger *zap.Logger
}

// NewAuditService constructs an AuditService writing through repo.
func NewAuditService(repo auditWriter, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// AttachQueue routes subsequent records through queue.
func (s *AuditService) AttachQueue(queue auditQueue) {
	if s == nil {
		return
	}
	s.queue = queue
}

// HandleJob is the jobs.Handler persisting queued audit records.
func (s *AuditService) HandleJob(ctx context.Context, job jobs.Job) error {
	log, ok := job.Payload.(*models.AuditLog)
	if !ok {
		s.logger.Warn("unexpected audit job payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.Create(ctx, log)
}

// Record builds an audit entry for action performed by userID and stores it. Failures are
// logged and never propagated to the caller.
func (s *AuditService) Record(ctx context.Context, action, userID string, meta models.RequestMeta, values map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}

	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Resource:  "auth",
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if userID != "" {
		uid := userID
		entry.UserID = &uid
		entry.ResourceID = &uid
	}
	if len(values) > 0 {
		entry.NewValues, _ = json.Marshal(values)
	}

	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: entry.ID, Type: auditJobType, Payload: entry})
		if err == nil {
			return
		}
		s.logger.Warn("failed to enqueue audit log, writing inline", zap.String("action", action), zap.Error(err))
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
