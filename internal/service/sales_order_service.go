package service

import (
	"strings"

	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/repository"

	"github.com/shopspring/decimal"
)

// SalesOrderService 销售订单只读服务，订单本身由上游系统维护
type SalesOrderService struct {
	orderRepo repository.SalesOrderRepository
}

// NewSalesOrderService 创建销售订单服务
func NewSalesOrderService(orderRepo repository.SalesOrderRepository) *SalesOrderService {
	return &SalesOrderService{orderRepo: orderRepo}
}

// GetOrder 获取订单详情
func (s *SalesOrderService) GetOrder(companyID, orderID uint) (*models.SalesOrder, error) {
	order, err := s.orderRepo.GetByID(companyID, orderID)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrders 查询订单列表
func (s *SalesOrderService) ListOrders(filter repository.SalesOrderListFilter) ([]models.SalesOrder, int64, error) {
	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, 0, ErrOrderFetchFailed
	}
	return orders, total, nil
}

// ImportOrderInput 订单导入输入（上游同步接口）
type ImportOrderInput struct {
	OrderNo      string
	CustomerName string
	Items        []ImportOrderItemInput
}

// ImportOrderItemInput 订单行导入输入
type ImportOrderItemInput struct {
	ProductID   uint
	ProductName string
	QtyPlanned  models.Quantity
	UnitWeight  models.Quantity
}

// ImportOrder 接收上游同步的已确认订单
func (s *SalesOrderService) ImportOrder(companyID uint, input ImportOrderInput) (*models.SalesOrder, error) {
	orderNo := strings.TrimSpace(input.OrderNo)
	if companyID == 0 || orderNo == "" || len(input.Items) == 0 {
		return nil, ErrInvalidPayload
	}
	for _, line := range input.Items {
		if line.ProductID == 0 || !line.QtyPlanned.IsPositive() || line.UnitWeight.IsNegative() {
			return nil, ErrInvalidPayload
		}
	}

	existing, err := s.orderRepo.GetByOrderNo(companyID, orderNo)
	if err != nil {
		return nil, ErrOrderFetchFailed
	}
	if existing != nil {
		return nil, ErrDuplicateAssignment
	}

	totalWeight := decimal.Zero
	items := make([]models.SalesOrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		totalWeight = totalWeight.Add(line.QtyPlanned.Mul(line.UnitWeight.Decimal))
		items = append(items, models.SalesOrderItem{
			ProductID:   line.ProductID,
			ProductName: strings.TrimSpace(line.ProductName),
			QtyPlanned:  line.QtyPlanned,
			UnitWeight:  line.UnitWeight,
		})
	}
	order := &models.SalesOrder{
		CompanyID:    companyID,
		OrderNo:      orderNo,
		CustomerName: strings.TrimSpace(input.CustomerName),
		TotalWeight:  models.NewQuantityFromDecimal(totalWeight),
	}
	if err := s.orderRepo.Create(order, items); err != nil {
		return nil, ErrRouteCreateFailed
	}
	order.Items = items
	return order, nil
}
