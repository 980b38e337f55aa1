package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chengpei-next/internal/cache"
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"
)

// 原因字典读多写少，短 TTL 缓存足够
const reasonCacheTTL = 5 * time.Minute

// ReasonService 配送异常原因字典服务
type ReasonService struct {
	reasonRepo repository.DeliveryReasonRepository
}

// NewReasonService 创建原因字典服务
func NewReasonService(reasonRepo repository.DeliveryReasonRepository) *ReasonService {
	return &ReasonService{reasonRepo: reasonRepo}
}

func reasonCacheKey(companyID uint, groupKey string) string {
	if groupKey == "" {
		groupKey = "all"
	}
	return fmt.Sprintf("reasons:%d:%s", companyID, groupKey)
}

// ListReasons 按分组获取可用原因
func (s *ReasonService) ListReasons(ctx context.Context, companyID uint, groupKey string) ([]models.DeliveryReason, error) {
	groupKey = strings.TrimSpace(groupKey)
	if groupKey != "" && !isValidReasonGroup(groupKey) {
		return nil, ErrInvalidPayload
	}

	cacheKey := reasonCacheKey(companyID, groupKey)
	var cached []models.DeliveryReason
	if hit, err := cache.GetJSON(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("reason_cache_get_failed", "key", cacheKey, "error", err)
	} else if hit {
		return cached, nil
	}

	var reasons []models.DeliveryReason
	var err error
	if groupKey == "" {
		reasons, err = s.reasonRepo.ListAll(companyID)
	} else {
		reasons, err = s.reasonRepo.ListByGroup(companyID, groupKey, true)
	}
	if err != nil {
		return nil, ErrRouteFetchFailed
	}

	if err := cache.SetJSON(ctx, cacheKey, reasons, reasonCacheTTL); err != nil {
		logger.Warnw("reason_cache_set_failed", "key", cacheKey, "error", err)
	}
	return reasons, nil
}

// CreateReasonInput 新增原因输入
type CreateReasonInput struct {
	Code     string
	Name     string
	GroupKey string
	Sort     int
}

// CreateReason 新增公司自定义原因
func (s *ReasonService) CreateReason(ctx context.Context, companyID uint, input CreateReasonInput) (*models.DeliveryReason, error) {
	code := strings.TrimSpace(input.Code)
	name := strings.TrimSpace(input.Name)
	groupKey := strings.TrimSpace(input.GroupKey)
	if companyID == 0 || code == "" || name == "" || !isValidReasonGroup(groupKey) {
		return nil, ErrInvalidPayload
	}

	existing, err := s.reasonRepo.GetByCode(companyID, code)
	if err != nil {
		return nil, ErrRouteFetchFailed
	}
	if existing != nil && existing.CompanyID == companyID {
		return nil, ErrReasonInvalid
	}

	reason := &models.DeliveryReason{
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		GroupKey:  groupKey,
		Sort:      input.Sort,
		Enabled:   true,
	}
	if err := s.reasonRepo.Create(reason); err != nil {
		return nil, ErrRouteUpdateFailed
	}

	for _, key := range []string{reasonCacheKey(companyID, groupKey), reasonCacheKey(companyID, "")} {
		if err := cache.Del(ctx, key); err != nil {
			logger.Warnw("reason_cache_del_failed", "key", key, "error", err)
		}
	}
	return reason, nil
}

// isValidReasonGroup 校验原因分组取值
func isValidReasonGroup(groupKey string) bool {
	switch groupKey {
	case constants.ReasonGroupNotLoadedTotal, constants.ReasonGroupPartialLoaded,
		constants.ReasonGroupPartialDelivery, constants.ReasonGroupNotDelivered:
		return true
	default:
		return false
	}
}
