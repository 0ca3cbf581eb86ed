package handler

import (
	"net/http"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/pricing"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
)

// SearchByBudget подбор объектов под бюджет по активной версии скидок
// @Summary Подбор по бюджету
// @Tags Selection
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BudgetSearchRequest true "Параметры подбора"
// @Success 200 {object} dto.BudgetSearchResponse
// @Router /api/company/selection/search [post]
func (h *Handler) SearchByBudget(ctx *gin.Context) {
	var request dto.BudgetSearchRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	paymentMethod, err := ds.ParsePaymentMethod(request.PaymentMethod)
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный способ оплаты"))
		return
	}
	propertyType := ds.PropertyFlat
	if request.PropertyType != "" {
		propertyType, err = ds.ParsePropertyType(request.PropertyType)
		if err != nil {
			h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный тип недвижимости"))
			return
		}
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

	// Активная версия перечитывается на каждый запрос: после
	// параллельной активации нельзя считать по устаревшим ставкам
	active, err := repo.ActiveVersion()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if active == nil {
		h.errorHandler(ctx, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии"))
		return
	}

	excludedIDs, err := repo.ExcludedSellIDs()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	company, err := middleware.CompanyFromContext(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	sells, err := estate.Sells(repository.SellFilter{
		Statuses:    company.InventoryStatusList(),
		Complexes:   request.Complexes,
		Category:    propertyType.Display(),
		RoomsMin:    request.RoomsMin,
		RoomsMax:    request.RoomsMax,
		AreaMin:     request.AreaMin,
		AreaMax:     request.AreaMax,
		FloorMin:    request.FloorMin,
		FloorMax:    request.FloorMax,
		ExcludedIDs: excludedIDs,
	})
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	options := make([]dto.ApartmentOption, 0, len(sells))
	for i := range sells {
		sell := &sells[i]
		if sell.House == nil || sell.EstatePrice <= pricing.Deduction(propertyType) {
			continue
		}

		quote, err := pricing.QuoteUnit(active, pricing.QuoteInput{
			ComplexName:   sell.House.ComplexName,
			PropertyType:  propertyType,
			PaymentMethod: paymentMethod,
			ListPrice:     sell.EstatePrice,
		})
		if err != nil {
			// Ипотека с телом сверх лимита не подходит под бюджетный подбор
			continue
		}

		// Для ипотеки бюджет сравнивается с первоначальным взносом
		priceToCompare := quote.FinalPrice
		if paymentMethod == ds.Mortgage {
			priceToCompare = quote.DownPayment
		}
		if priceToCompare > request.Budget {
			continue
		}

		option := dto.ApartmentOption{
			SellID:      sell.ID,
			ComplexName: sell.House.ComplexName,
			House:       sell.House.Name,
			Floor:       sell.EstateFloor,
			Rooms:       sell.EstateRooms,
			Area:        sell.EstateArea,
			ListPrice:   sell.EstatePrice,
			BottomPrice: quote.FinalPrice,
		}
		if sell.EstateArea > 0 {
			option.PricePerM2 = quote.FinalPrice / sell.EstateArea
		}
		options = append(options, option)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   dto.BudgetSearchResponse{Options: options, Total: len(options)},
	})
}

// GetApartmentCard карточка объекта с ценами по всем способам оплаты
func (h *Handler) GetApartmentCard(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
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

	sell, err := estate.SellByID(id)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	active, err := repo.ActiveVersion()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if active == nil {
		h.errorHandler(ctx, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии"))
		return
	}

	propertyType, err := ds.ParsePropertyType(sell.EstateSellCategory)
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "неизвестная категория объекта"))
		return
	}

	card := dto.ApartmentCardResponse{
		SellID:    sell.ID,
		Floor:     sell.EstateFloor,
		Rooms:     sell.EstateRooms,
		Area:      sell.EstateArea,
		ListPrice: sell.EstatePrice,
		Status:    sell.EstateSellStatusName,
	}
	if sell.House != nil {
		card.ComplexName = sell.House.ComplexName
		card.House = sell.House.Name
	}

	paid, err := estate.PaymentsTotal(sell.ID)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	card.PaidAmount = paid

	// Цена по каждому способу оплаты; связка без скидки в версии
	// считается с нулевыми ставками
	for _, paymentMethod := range ds.AllPaymentMethods() {
		quote, err := pricing.QuoteUnit(active, pricing.QuoteInput{
			ComplexName:   card.ComplexName,
			PropertyType:  propertyType,
			PaymentMethod: paymentMethod,
			ListPrice:     sell.EstatePrice,
		})
		if err != nil {
			continue
		}
		card.Options = append(card.Options, dto.PaymentOption{
			PaymentMethod: string(paymentMethod),
			Display:       paymentMethod.Display(),
			FinalPrice:    quote.FinalPrice,
			TotalRate:     quote.TotalRate,
		})
	}

	// Комментарий к ЖК из активной версии
	for _, c := range active.ComplexComments {
		if c.ComplexName == card.ComplexName {
			card.Comment = c.Comment
			break
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": card})
}

// QuoteUnit расчёт цены объекта с дополнительными скидками
func (h *Handler) QuoteUnit(ctx *gin.Context) {
	var request dto.QuoteRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	paymentMethod, err := ds.ParsePaymentMethod(request.PaymentMethod)
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный способ оплаты"))
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

	sell, err := estate.SellByID(request.SellID)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	propertyType, err := ds.ParsePropertyType(sell.EstateSellCategory)
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "неизвестная категория объекта"))
		return
	}

	active, err := repo.ActiveVersion()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	complexName := ""
	if sell.House != nil {
		complexName = sell.House.ComplexName
	}

	quote, err := pricing.QuoteUnit(active, pricing.QuoteInput{
		ComplexName:   complexName,
		PropertyType:  propertyType,
		PaymentMethod: paymentMethod,
		ListPrice:     sell.EstatePrice,
		DownPayment:   request.DownPayment,
		Extra: map[string]float64{
			"kd":          request.ExtraKd,
			"opt":         request.ExtraOpt,
			"gd":          request.ExtraGd,
			"holding":     request.ExtraHolding,
			"shareholder": request.ExtraShareholder,
		},
	})
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": dto.QuoteResponse{
		SellID:        sell.ID,
		ComplexName:   complexName,
		PropertyType:  string(propertyType),
		PaymentMethod: string(paymentMethod),
		ListPrice:     quote.ListPrice,
		Deduction:     quote.Deduction,
		TotalRate:     quote.TotalRate,
		FinalPrice:    quote.FinalPrice,
		MortgageBody:  quote.MortgageBody,
		DownPayment:   quote.DownPayment,
		VersionNumber: quote.VersionNumber,
	}})
}

// CalculateInstallment стандартная рассрочка по объекту
func (h *Handler) CalculateInstallment(ctx *gin.Context) {
	var request dto.InstallmentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	h.calculateInstallment(ctx, request, false)
}

// CalculateDpInstallment рассрочка на первоначальный взнос при ипотеке
func (h *Handler) CalculateDpInstallment(ctx *gin.Context) {
	var request dto.InstallmentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	h.calculateInstallment(ctx, request, true)
}

func (h *Handler) calculateInstallment(ctx *gin.Context, request dto.InstallmentRequest, dpPlan bool) {
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

	sell, err := estate.SellByID(request.SellID)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	active, err := repo.ActiveVersion()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if active == nil {
		h.errorHandler(ctx, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии"))
		return
	}

	settings, err := repo.CalculatorSettings()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	complexName := ""
	if sell.House != nil {
		complexName = sell.House.ComplexName
	}

	// Дополнительные скидки проходят ту же проверку лимитов, что и расчёт цены
	extra := map[string]float64{
		"kd":          request.ExtraKd,
		"opt":         request.ExtraOpt,
		"gd":          request.ExtraGd,
		"holding":     request.ExtraHolding,
		"shareholder": request.ExtraShareholder,
	}

	var result *pricing.InstallmentResult
	if dpPlan {
		result, err = pricing.CalculateDownPaymentInstallment(settings, pricing.DownPaymentInstallmentInput{
			SellID:      sell.ID,
			ListPrice:   sell.EstatePrice,
			Discount:    findVersionDiscount(active, complexName, ds.Mortgage),
			Extra:       extra,
			DownPayment: request.DownPayment,
			TermMonths:  request.TermMonths,
			StartDate:   time.Now(),
		})
	} else {
		result, err = pricing.CalculateInstallmentPlan(settings, pricing.StandardInstallmentInput{
			SellID:      sell.ID,
			ListPrice:   sell.EstatePrice,
			Discount:    findVersionDiscount(active, complexName, ds.FullPayment),
			Extra:       extra,
			DownPayment: request.DownPayment,
			TermMonths:  request.TermMonths,
			StartDate:   time.Now(),
			Today:       time.Now(),
		})
	}
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	schedule := make([]dto.InstallmentScheduleRow, 0, len(result.Schedule))
	for _, row := range result.Schedule {
		schedule = append(schedule, dto.InstallmentScheduleRow{
			Month:   row.Month,
			Payment: row.Amount,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": dto.InstallmentResponse{
		SellID:          sell.ID,
		ContractValue:   result.ContractValue,
		DownPayment:     result.DownPayment,
		TermMonths:      result.TermMonths,
		MonthlyPayment:  result.MonthlyPayment,
		DiscountPercent: result.DiscountPercent,
		Schedule:        schedule,
	}})
}

// findVersionDiscount ищет квартирную скидку версии для ЖК и способа оплаты
func findVersionDiscount(version *ds.DiscountVersion, complexName string, paymentMethod ds.PaymentMethod) *ds.Discount {
	for i := range version.Discounts {
		d := &version.Discounts[i]
		if d.ComplexName == complexName && d.PropertyType == ds.PropertyFlat && d.PaymentMethod == paymentMethod {
			return d
		}
	}
	return nil
}

// GetComplexes список ЖК для фильтров подбора
func (h *Handler) GetComplexes(ctx *gin.Context) {
	estate, err := h.estateRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	complexes, err := estate.DistinctComplexes()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": complexes})
}
