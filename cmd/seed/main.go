package main

import (
	"github.com/chengpei-next/internal/config"
	"github.com/chengpei-next/internal/constants"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/models"

	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 内置原因字典
	if err := models.InitDefaultReasons(); err != nil {
		stdLog.Fatalf("Failed to seed reasons: %v", err)
	}

	// 添加演示订单
	orders := []models.SalesOrder{
		{
			CompanyID:      1,
			OrderNo:        "SO-20260901-0001",
			CustomerName:   "朝阳便利一店",
			DispatchStatus: constants.OrderDispatchOpen,
			Items: []models.SalesOrderItem{
				{CompanyID: 1, ProductID: 101, ProductName: "550ml 矿泉水（箱）", QtyPlanned: models.NewQuantityFromInt(20), UnitWeight: models.NewQuantityFromDecimal(decimal.NewFromFloat(13.2))},
				{CompanyID: 1, ProductID: 102, ProductName: "原味酸奶（提）", QtyPlanned: models.NewQuantityFromInt(8), UnitWeight: models.NewQuantityFromDecimal(decimal.NewFromFloat(2.4))},
			},
		},
		{
			CompanyID:      1,
			OrderNo:        "SO-20260901-0002",
			CustomerName:   "海淀生鲜超市",
			DispatchStatus: constants.OrderDispatchOpen,
			Items: []models.SalesOrderItem{
				{CompanyID: 1, ProductID: 103, ProductName: "散装大米", QtyPlanned: models.NewQuantityFromDecimal(decimal.NewFromFloat(150.5)), UnitWeight: models.NewQuantityFromInt(1)},
			},
		},
		{
			CompanyID:      1,
			OrderNo:        "SO-20260901-0003",
			CustomerName:   "丰台餐饮中心",
			DispatchStatus: constants.OrderDispatchOpen,
			Items: []models.SalesOrderItem{
				{CompanyID: 1, ProductID: 101, ProductName: "550ml 矿泉水（箱）", QtyPlanned: models.NewQuantityFromInt(5), UnitWeight: models.NewQuantityFromDecimal(decimal.NewFromFloat(13.2))},
				{CompanyID: 1, ProductID: 104, ProductName: "冷冻鸡翅（袋）", QtyPlanned: models.NewQuantityFromInt(12), UnitWeight: models.NewQuantityFromDecimal(decimal.NewFromFloat(1.5))},
			},
		},
	}

	for _, order := range orders {
		var existing models.SalesOrder
		if err := models.DB.Where("order_no = ?", order.OrderNo).First(&existing).Error; err != nil {
			// 不存在则创建
			total := decimal.Zero
			for _, item := range order.Items {
				total = total.Add(item.QtyPlanned.Decimal.Mul(item.UnitWeight.Decimal))
			}
			order.TotalWeight = models.NewQuantityFromDecimal(total)
			if err := models.DB.Create(&order).Error; err != nil {
				stdLog.Printf("Failed to create order %s: %v", order.OrderNo, err)
			} else {
				stdLog.Printf("Created order: %s", order.OrderNo)
			}
		} else {
			stdLog.Printf("Order already exists: %s", order.OrderNo)
		}
	}

	stdLog.Printf("Seed finished")
}
