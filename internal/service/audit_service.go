package service

import (
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"
)

// AuditService 审计日志服务
type AuditService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditService 创建审计日志服务
func NewAuditService(auditRepo repository.AuditLogRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Record 落库一条审计记录，由队列消费者调用
func (s *AuditService) Record(companyID, operatorID uint, action string, routeID uint, detail models.JSON) error {
	if companyID == 0 || action == "" {
		return ErrInvalidPayload
	}
	log := &models.AuditLog{
		CompanyID:  companyID,
		OperatorID: operatorID,
		Action:     action,
		RouteID:    routeID,
		Detail:     detail,
	}
	if err := s.auditRepo.Create(log); err != nil {
		return ErrAuditCreateFailed
	}
	return nil
}

// List 查询审计日志
func (s *AuditService) List(filter repository.AuditLogListFilter) ([]models.AuditLog, int64, error) {
	logs, total, err := s.auditRepo.List(filter)
	if err != nil {
		return nil, 0, ErrRouteFetchFailed
	}
	return logs, total, nil
}
