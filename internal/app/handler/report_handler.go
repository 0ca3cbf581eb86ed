package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"
	"apartment-finder/internal/app/excel"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/pricing"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
)

// buildInventoryRows агрегирует остатки по (ЖК, тип недвижимости).
// Стоимость берётся по низу: ставки связки со 100% оплатой из активной
// версии. Без операционной базы отчёт пуст, ошибки нет.
func (h *Handler) buildInventoryRows(ctx *gin.Context) ([]excel.InventoryRow, error) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		return nil, err
	}
	estate, err := h.estateRepo(ctx)
	if err != nil {
		return nil, err
	}
	company, err := middleware.CompanyFromContext(ctx)
	if err != nil {
		return nil, err
	}

	active, err := repo.ActiveVersion()
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии")
	}

	excludedComplexes, err := repo.ExcludedComplexNames()
	if err != nil {
		return nil, err
	}
	excluded := make(map[string]bool, len(excludedComplexes))
	for _, name := range excludedComplexes {
		excluded[name] = true
	}

	sells, err := estate.Sells(repository.SellFilter{
		Statuses: company.InventoryStatusList(),
	})
	if err != nil {
		return nil, err
	}

	type bucket struct {
		units int
		area  float64
		value float64
	}
	type key struct {
		complexName  string
		propertyType ds.PropertyType
	}
	buckets := map[key]*bucket{}

	for i := range sells {
		sell := &sells[i]
		if sell.House == nil || excluded[sell.House.ComplexName] {
			continue
		}
		if sell.EstatePrice <= 0 || sell.EstateArea <= 0 {
			continue
		}
		propertyType, err := ds.ParsePropertyType(sell.EstateSellCategory)
		if err != nil {
			continue
		}

		bottomPrice := pricing.BottomPrice(active, sell.House.ComplexName, propertyType, sell.EstatePrice)

		k := key{sell.House.ComplexName, propertyType}
		b := buckets[k]
		if b == nil {
			b = &bucket{}
			buckets[k] = b
		}
		b.units++
		b.area += sell.EstateArea
		b.value += bottomPrice
	}

	rows := make([]excel.InventoryRow, 0, len(buckets))
	for k, b := range buckets {
		rows = append(rows, excel.InventoryRow{
			ComplexName:  k.complexName,
			PropertyType: k.propertyType,
			Units:        b.units,
			TotalArea:    b.area,
			TotalValue:   b.value,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ComplexName != rows[j].ComplexName {
			return rows[i].ComplexName < rows[j].ComplexName
		}
		return rows[i].PropertyType < rows[j].PropertyType
	})

	return rows, nil
}

// GetInventoryReport отчёт по остаткам
// @Summary Отчёт по остаткам
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.InventoryReportResponse
// @Router /api/company/reports/inventory [get]
func (h *Handler) GetInventoryReport(ctx *gin.Context) {
	rows, err := h.buildInventoryRows(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	responses := make([]dto.InventoryRow, 0, len(rows))
	for _, row := range rows {
		avgPriceM2 := 0.0
		if row.TotalArea > 0 {
			avgPriceM2 = row.TotalValue / row.TotalArea
		}
		responses = append(responses, dto.InventoryRow{
			ComplexName:  row.ComplexName,
			PropertyType: row.PropertyType.Display(),
			Units:        row.Units,
			TotalArea:    row.TotalArea,
			TotalValue:   row.TotalValue,
			AvgPriceM2:   avgPriceM2,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   dto.InventoryReportResponse{Rows: responses, GeneratedAt: time.Now()},
	})
}

// ExportInventoryReport выгрузка отчёта по остаткам в Excel
func (h *Handler) ExportInventoryReport(ctx *gin.Context) {
	rows, err := h.buildInventoryRows(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	data, err := excel.GenerateInventoryWorkbook(rows)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	filename := "inventory_" + time.Now().Format("2006-01-02") + ".xlsx"
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(http.StatusOK, workbookMIME, data)
}

// GetPlanFactReport план-факт за месяц: план из локальной базы,
// факт по сделкам операционной базы
func (h *Handler) GetPlanFactReport(ctx *gin.Context) {
	year, err := queryInt(ctx, "year", time.Now().Year())
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	month, err := queryInt(ctx, "month", int(time.Now().Month()))
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	estate, err := h.estateRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	company, err := middleware.CompanyFromContext(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	plans, err := repo.SalesPlans(year, month)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	deals, err := estate.DealsInPeriod(company.DealStatusList(), year, month)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	// Факт по ЖК
	factUnits := map[string]int{}
	factVolume := map[string]float64{}
	for i := range deals {
		deal := &deals[i]
		if deal.Sell == nil || deal.Sell.House == nil {
			continue
		}
		name := deal.Sell.House.ComplexName
		factUnits[name]++
		factVolume[name] += deal.DealSum
	}

	type planFactRow struct {
		ComplexName string  `json:"complex_name"`
		PlanUnits   int     `json:"plan_units"`
		FactUnits   int     `json:"fact_units"`
		PlanVolume  float64 `json:"plan_volume"`
		FactVolume  float64 `json:"fact_volume"`
	}

	rows := make([]planFactRow, 0, len(plans))
	seen := map[string]bool{}
	for _, plan := range plans {
		rows = append(rows, planFactRow{
			ComplexName: plan.ComplexName,
			PlanUnits:   plan.PlanUnits,
			FactUnits:   factUnits[plan.ComplexName],
			PlanVolume:  plan.PlanVolume,
			FactVolume:  factVolume[plan.ComplexName],
		})
		seen[plan.ComplexName] = true
	}
	// Сделки по ЖК без плана тоже попадают в отчёт
	for name := range factUnits {
		if !seen[name] {
			rows = append(rows, planFactRow{
				ComplexName: name,
				FactUnits:   factUnits[name],
				FactVolume:  factVolume[name],
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ComplexName < rows[j].ComplexName })

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"year": year, "month": month, "rows": rows},
	})
}

// UploadSalesPlans загрузка планов продаж на месяц
func (h *Handler) UploadSalesPlans(ctx *gin.Context) {
	var request struct {
		Year  int `json:"year" binding:"required"`
		Month int `json:"month" binding:"required,min=1,max=12"`
		Plans []struct {
			ComplexName  string  `json:"complex_name" binding:"required"`
			PropertyType string  `json:"property_type" binding:"required"`
			PlanUnits    int     `json:"plan_units"`
			PlanVolume   float64 `json:"plan_volume"`
			PlanIncome   float64 `json:"plan_income"`
		} `json:"plans" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	for _, p := range request.Plans {
		propertyType, err := ds.ParsePropertyType(p.PropertyType)
		if err != nil {
			h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный тип недвижимости"))
			return
		}
		err = repo.UpsertSalesPlan(&ds.SalesPlan{
			ComplexName:  p.ComplexName,
			PropertyType: string(propertyType),
			Year:         request.Year,
			Month:        request.Month,
			PlanUnits:    p.PlanUnits,
			PlanVolume:   p.PlanVolume,
			PlanIncome:   p.PlanIncome,
		})
		if err != nil {
			h.errorHandler(ctx, err)
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "планы сохранены",
		"rows":    len(request.Plans),
	})
}

// queryInt читает необязательный числовой query-параметр
func queryInt(ctx *gin.Context, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "некорректный параметр %s", name)
	}
	return value, nil
}
