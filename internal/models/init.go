package models

import (
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/logger"
)

// InitDefaultReasons 初始化内置配送异常原因字典
func InitDefaultReasons() error {
	var count int64
	DB.Model(&DeliveryReason{}).Where("company_id = ?", 0).Count(&count)
	if count > 0 {
		return nil
	}

	reasons := []DeliveryReason{
		{Code: "out_of_stock", Name: "仓库缺货", GroupKey: constants.ReasonGroupNotLoadedTotal, Sort: 10, Enabled: true},
		{Code: "vehicle_full", Name: "车辆满载", GroupKey: constants.ReasonGroupNotLoadedTotal, Sort: 20, Enabled: true},
		{Code: "short_pick", Name: "拣货短缺", GroupKey: constants.ReasonGroupPartialLoaded, Sort: 10, Enabled: true},
		{Code: "damaged_on_load", Name: "装车破损", GroupKey: constants.ReasonGroupPartialLoaded, Sort: 20, Enabled: true},
		{Code: "customer_partial_reject", Name: "客户部分拒收", GroupKey: constants.ReasonGroupPartialDelivery, Sort: 10, Enabled: true},
		{Code: "damaged_in_transit", Name: "运输破损", GroupKey: constants.ReasonGroupPartialDelivery, Sort: 20, Enabled: true},
		{Code: "customer_reject", Name: "客户整单拒收", GroupKey: constants.ReasonGroupNotDelivered, Sort: 10, Enabled: true},
		{Code: "customer_absent", Name: "客户不在", GroupKey: constants.ReasonGroupNotDelivered, Sort: 20, Enabled: true},
		{Code: "address_error", Name: "地址错误", GroupKey: constants.ReasonGroupNotDelivered, Sort: 30, Enabled: true},
	}

	if err := DB.Create(&reasons).Error; err != nil {
		return err
	}
	logger.Infow("default_delivery_reasons_created", "count", len(reasons))
	return nil
}
