package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

const dashboardListLimit = 5

// dashboardClock decides "this month" and "today".
var dashboardClock = time.Now

type DashboardStats struct {
	TotalCustomers    int64           `json:"total_customers"`
	TotalProducts     int64           `json:"total_products"`
	TotalTransactions int64           `json:"total_transactions"`
	LowStockProducts  int64           `json:"low_stock_products"`
	MonthlyRevenue    decimal.Decimal `json:"monthly_revenue"`
	TodayTransactions int64           `json:"today_transactions"`
}

type RecentTransaction struct {
	ID            int             `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerName  string          `json:"customer_name"`
	Total         decimal.Decimal `json:"total"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	ItemsCount    int64           `json:"items_count"`
}

type TopProduct struct {
	ProductId    int             `json:"product_id"`
	ProductName  string          `json:"product_name"`
	TotalSold    int64           `json:"total_sold"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}

type LowStockItem struct {
	ID          int             `json:"id"`
	ProductCode string          `json:"product_code"`
	Name        string          `json:"name"`
	Stock       int             `json:"stock"`
	Price       decimal.Decimal `json:"price"`
}

type DashboardResponse struct {
	Stats              DashboardStats      `json:"stats"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
	TopProducts        []TopProduct        `json:"top_products"`
	LowStockItems      []LowStockItem      `json:"low_stock_items"`
}

// GetDashboard summarises customers, stock and sales. With ENABLE_REPORT_CACHE
// the result is kept in redis until the next change to the underlying data.
func GetDashboard(ctx context.Context) (*DashboardResponse, error) {
	logger := config.GetLogger()
	started := time.Now()
	defer logSlowReport(ctx, "dashboard", started, nil)

	if config.ReportCacheEnabled() {
		var cached DashboardResponse
		ok, err := cacheGet(models.DashboardCacheKey, &cached)
		if err != nil {
			config.LogError(logger, "Reports", "GetDashboard", "read cache", nil, err)
		} else if ok {
			return &cached, nil
		}
	}

	now := dashboardClock().UTC()
	threshold := config.LowStockThreshold()

	stats, err := dashboardStats(ctx, now, threshold)
	if err != nil {
		return nil, err
	}
	recent, err := recentTransactions(ctx)
	if err != nil {
		return nil, err
	}
	top, err := topProducts(ctx)
	if err != nil {
		return nil, err
	}
	low, err := lowStockItems(ctx, threshold)
	if err != nil {
		return nil, err
	}

	result := &DashboardResponse{
		Stats:              *stats,
		RecentTransactions: recent,
		TopProducts:        top,
		LowStockItems:      low,
	}

	if config.ReportCacheEnabled() {
		if err := cacheSet(models.DashboardCacheKey, result, config.ReportCacheTTL()); err != nil {
			config.LogError(logger, "Reports", "GetDashboard", "write cache", nil, err)
		}
	}
	return result, nil
}

func dashboardStats(ctx context.Context, now time.Time, threshold int) (*DashboardStats, error) {
	db := config.GetDB().WithContext(ctx)
	var stats DashboardStats

	if err := db.Model(&models.Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, utils.NewPersistenceError("count customers", err)
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, utils.NewPersistenceError("count products", err)
	}
	if err := db.Model(&models.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, utils.NewPersistenceError("count transactions", err)
	}
	if err := db.Model(&models.Product{}).Where("stock <= ?", threshold).Count(&stats.LowStockProducts).Error; err != nil {
		return nil, utils.NewPersistenceError("count low stock products", err)
	}

	monthStart, _ := utils.GetThisMonthRange(now)
	nextMonth := monthStart.AddDate(0, 1, 0)
	if err := db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(total), 0)").
		Where("invoice_date >= ? AND invoice_date < ?", monthStart, nextMonth).
		Row().Scan(&stats.MonthlyRevenue); err != nil {
		return nil, utils.NewPersistenceError("sum monthly revenue", err)
	}
	stats.MonthlyRevenue = stats.MonthlyRevenue.Round(2)

	dayStart, _ := utils.GetDayRange(now)
	if err := db.Model(&models.Transaction{}).
		Where("invoice_date >= ? AND invoice_date < ?", dayStart, dayStart.AddDate(0, 0, 1)).
		Count(&stats.TodayTransactions).Error; err != nil {
		return nil, utils.NewPersistenceError("count today's transactions", err)
	}
	return &stats, nil
}

func recentTransactions(ctx context.Context) ([]RecentTransaction, error) {
	db := config.GetDB().WithContext(ctx)

	var transactions []*models.Transaction
	if err := db.Preload("Customer").
		Order("created_at DESC").Order("id DESC").
		Limit(dashboardListLimit).
		Find(&transactions).Error; err != nil {
		return nil, utils.NewPersistenceError("list recent transactions", err)
	}
	if len(transactions) == 0 {
		return []RecentTransaction{}, nil
	}

	ids := make([]int, 0, len(transactions))
	for _, t := range transactions {
		ids = append(ids, t.ID)
	}
	var counts []struct {
		TransactionId int
		ItemsCount    int64
	}
	if err := db.Model(&models.TransactionDetail{}).
		Select("transaction_id, COUNT(*) AS items_count").
		Where("transaction_id IN ?", ids).
		Group("transaction_id").
		Scan(&counts).Error; err != nil {
		return nil, utils.NewPersistenceError("count transaction lines", err)
	}
	itemsCount := make(map[int]int64, len(counts))
	for _, c := range counts {
		itemsCount[c.TransactionId] = c.ItemsCount
	}

	results := make([]RecentTransaction, 0, len(transactions))
	for _, t := range transactions {
		row := RecentTransaction{
			ID:            t.ID,
			InvoiceNumber: t.InvoiceNumber,
			Total:         t.Total,
			InvoiceDate:   t.InvoiceDate,
			ItemsCount:    itemsCount[t.ID],
		}
		if t.Customer != nil {
			row.CustomerName = t.Customer.Name
		}
		results = append(results, row)
	}
	return results, nil
}

// topProducts ranks products by quantity sold over all transactions.
func topProducts(ctx context.Context) ([]TopProduct, error) {
	var results []TopProduct
	if err := config.GetDB().WithContext(ctx).Model(&models.TransactionDetail{}).
		Select("product_id, product_name, SUM(quantity) AS total_sold, SUM(amount) AS total_revenue").
		Group("product_id, product_name").
		Order("total_sold DESC").Order("product_id").
		Limit(dashboardListLimit).
		Scan(&results).Error; err != nil {
		return nil, utils.NewPersistenceError("rank products", err)
	}
	for i := range results {
		results[i].TotalRevenue = results[i].TotalRevenue.Round(2)
	}
	if results == nil {
		results = []TopProduct{}
	}
	return results, nil
}

func lowStockItems(ctx context.Context, threshold int) ([]LowStockItem, error) {
	var results []LowStockItem
	if err := config.GetDB().WithContext(ctx).Model(&models.Product{}).
		Select("id, product_code, name, stock, price").
		Where("stock <= ?", threshold).
		Order("stock").Order("id").
		Limit(dashboardListLimit).
		Scan(&results).Error; err != nil {
		return nil, utils.NewPersistenceError("list low stock products", err)
	}
	if results == nil {
		results = []LowStockItem{}
	}
	return results, nil
}
