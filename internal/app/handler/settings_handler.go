package handler

import (
	"net/http"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
)

func currencyResponse(settings *ds.CurrencySettings) dto.CurrencySettingsResponse {
	return dto.CurrencySettingsResponse{
		RateSource:     settings.RateSource,
		CbuRate:        settings.CbuRate,
		ManualRate:     settings.ManualRate,
		EffectiveRate:  settings.EffectiveRate,
		CbuLastUpdated: settings.CbuLastUpdated,
	}
}

// GetCurrencySettings текущие настройки курса USD/UZS
// @Summary Настройки курса валюты
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CurrencySettingsResponse
// @Router /api/company/settings/currency [get]
func (h *Handler) GetCurrencySettings(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	settings, err := repo.CurrencySettings()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": currencyResponse(settings)})
}

// SetRateSource переключение источника курса (ЦБ или ручной)
func (h *Handler) SetRateSource(ctx *gin.Context) {
	var request dto.SetRateSourceRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	settings, err := repo.SetRateSource(request.Source)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": currencyResponse(settings)})
}

// SetManualRate установка ручного курса USD/UZS
func (h *Handler) SetManualRate(ctx *gin.Context) {
	var request dto.SetManualRateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	settings, err := repo.SetManualRate(request.Rate)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": currencyResponse(settings)})
}

// RefreshCbuRate принудительный запрос курса из API ЦБ вне расписания
func (h *Handler) RefreshCbuRate(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	rate, err := h.Cbu.FetchUSDRate(ctx.Request.Context())
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Infrastructure, err, "не удалось получить курс ЦБ"))
		return
	}

	settings, err := repo.StoreCbuRate(rate, time.Now())
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": currencyResponse(settings)})
}

func calculatorResponse(settings *ds.CalculatorSettings) dto.CalculatorSettingsResponse {
	return dto.CalculatorSettingsResponse{
		StandardInstallmentWhitelist: settings.StandardWhitelist(),
		DpInstallmentWhitelist:       settings.DpWhitelist(),
		DpInstallmentMaxTerm:         settings.DpInstallmentMaxTerm,
		TimeValueRateAnnual:          settings.TimeValueRateAnnual,
		StandardInstallmentMinDp:     settings.StandardInstallmentMinDp,
	}
}

// GetCalculatorSettings настройки калькуляторов рассрочки
func (h *Handler) GetCalculatorSettings(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	settings, err := repo.CalculatorSettings()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": calculatorResponse(settings)})
}

// UpdateCalculatorSettings частичное обновление настроек калькуляторов.
// Белые списки заменяются целиком, числовые поля опциональны.
func (h *Handler) UpdateCalculatorSettings(ctx *gin.Context) {
	var request dto.UpdateCalculatorSettingsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	settings, err := repo.CalculatorSettings()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if request.StandardInstallmentWhitelist != nil {
		settings.StandardInstallmentWhitelist = repository.FormatWhitelist(request.StandardInstallmentWhitelist)
	}
	if request.DpInstallmentWhitelist != nil {
		settings.DpInstallmentWhitelist = repository.FormatWhitelist(request.DpInstallmentWhitelist)
	}
	if request.DpInstallmentMaxTerm != nil {
		if *request.DpInstallmentMaxTerm < 1 {
			h.errorHandler(ctx, apperr.New(apperr.Validation, "максимальный срок рассрочки на ПВ должен быть не меньше 1 месяца"))
			return
		}
		settings.DpInstallmentMaxTerm = *request.DpInstallmentMaxTerm
	}
	if request.TimeValueRateAnnual != nil {
		if *request.TimeValueRateAnnual < 0 {
			h.errorHandler(ctx, apperr.New(apperr.Validation, "годовая ставка не может быть отрицательной"))
			return
		}
		settings.TimeValueRateAnnual = *request.TimeValueRateAnnual
	}
	if request.StandardInstallmentMinDp != nil {
		if *request.StandardInstallmentMinDp < 0 || *request.StandardInstallmentMinDp > 100 {
			h.errorHandler(ctx, apperr.New(apperr.Validation, "минимальный ПВ задаётся в процентах от 0 до 100"))
			return
		}
		settings.StandardInstallmentMinDp = *request.StandardInstallmentMinDp
	}

	if err := repo.SaveCalculatorSettings(settings); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": calculatorResponse(settings)})
}

// GetExclusions списки исключённых объектов и ЖК
func (h *Handler) GetExclusions(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	sellIDs, err := repo.ExcludedSellIDs()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	complexes, err := repo.ExcludedComplexNames()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"excluded_sells":     sellIDs,
			"excluded_complexes": complexes,
		},
	})
}

// ExcludeSell исключение объекта из подбора
func (h *Handler) ExcludeSell(ctx *gin.Context) {
	var request dto.ExcludeSellRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.ExcludeSell(request.SellID, request.Comment); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "объект исключён из подбора"})
}

// IncludeSell возврат объекта в подбор
func (h *Handler) IncludeSell(ctx *gin.Context) {
	sellID, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.IncludeSell(sellID); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "объект возвращён в подбор"})
}

// ExcludeComplex исключение ЖК из сводки по остаткам
func (h *Handler) ExcludeComplex(ctx *gin.Context) {
	var request dto.ExcludeComplexRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.ExcludeComplex(request.ComplexName); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "ЖК исключён из сводки"})
}

// IncludeComplex возврат ЖК в сводку по остаткам
func (h *Handler) IncludeComplex(ctx *gin.Context) {
	name := ctx.Param("name")
	if name == "" {
		h.errorHandler(ctx, apperr.New(apperr.Validation, "не указано название ЖК"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.IncludeComplex(name); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "ЖК возвращён в сводку"})
}
