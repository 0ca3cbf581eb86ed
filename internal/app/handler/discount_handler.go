package handler

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"
	"apartment-finder/internal/app/excel"
	"apartment-finder/internal/app/mail"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/pricing"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const workbookMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func versionResponse(v *ds.DiscountVersion) dto.VersionResponse {
	return dto.VersionResponse{
		ID:               v.ID,
		VersionNumber:    v.VersionNumber,
		Comment:          v.Comment,
		IsActive:         v.IsActive,
		WasEverActivated: v.WasEverActivated,
		CreatedAt:        v.CreatedAt,
		SummarySentAt:    v.SummarySentAt,
		DiscountCount:    len(v.Discounts),
	}
}

func discountResponse(d *ds.Discount) dto.DiscountResponse {
	resp := dto.DiscountResponse{
		ID:            d.ID,
		ComplexName:   d.ComplexName,
		PropertyType:  string(d.PropertyType),
		PaymentMethod: string(d.PaymentMethod),
		Mpp:           d.Mpp,
		Rop:           d.Rop,
		Kd:            d.Kd,
		Opt:           d.Opt,
		Gd:            d.Gd,
		Holding:       d.Holding,
		Shareholder:   d.Shareholder,
		Action:        d.Action,
	}
	if d.CadastreDate != nil {
		formatted := d.CadastreDate.Format("2006-01-02")
		resp.CadastreDate = &formatted
	}
	return resp
}

// GetVersions история версий скидок
// @Summary История версий
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/company/versions [get]
func (h *Handler) GetVersions(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	versions, err := repo.Versions()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	responses := make([]dto.VersionResponse, 0, len(versions))
	for i := range versions {
		item := versionResponse(&versions[i])
		count, err := repo.DiscountCount(versions[i].ID)
		if err == nil {
			item.DiscountCount = int(count)
		}
		responses = append(responses, item)
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": responses})
}

// GetActiveVersion активная версия со всеми скидками
func (h *Handler) GetActiveVersion(ctx *gin.Context) {
	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	version, err := repo.ActiveVersion()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	if version == nil {
		h.errorHandler(ctx, apperr.New(apperr.Domain, "система скидок не настроена: нет активной версии"))
		return
	}

	h.renderVersionDetail(ctx, version)
}

// GetVersion одна версия со скидками
func (h *Handler) GetVersion(ctx *gin.Context) {
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

	version, err := repo.VersionByID(id)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	h.renderVersionDetail(ctx, version)
}

func (h *Handler) renderVersionDetail(ctx *gin.Context, version *ds.DiscountVersion) {
	discounts := make([]dto.DiscountResponse, 0, len(version.Discounts))
	for i := range version.Discounts {
		discounts = append(discounts, discountResponse(&version.Discounts[i]))
	}

	comments := make([]gin.H, 0, len(version.ComplexComments))
	for _, c := range version.ComplexComments {
		comments = append(comments, gin.H{"complex_name": c.ComplexName, "comment": c.Comment})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"version":   versionResponse(version),
		"discounts": discounts,
		"comments":  comments,
	})
}

// CreateVersion создаёт черновик: пустой или копию активной версии
// @Summary Создание черновика версии
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateVersionRequest true "Параметры черновика"
// @Success 201 {object} map[string]interface{}
// @Router /api/company/versions [post]
func (h *Handler) CreateVersion(ctx *gin.Context) {
	var request dto.CreateVersionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	var version *ds.DiscountVersion
	if request.CloneFromActive {
		active, err := repo.ActiveVersion()
		if err != nil {
			h.errorHandler(ctx, err)
			return
		}
		if active == nil {
			h.errorHandler(ctx, apperr.New(apperr.Validation, "нет активной версии для клонирования"))
			return
		}
		version, err = repo.CloneForEditing(active.ID, request.Comment)
		if err != nil {
			h.errorHandler(ctx, err)
			return
		}
	} else {
		version, err = repo.CreateDraft(request.Comment)
		if err != nil {
			h.errorHandler(ctx, err)
			return
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "черновик создан",
		"data":    versionResponse(version),
	})
}

// DeleteVersion удаляет черновик
func (h *Handler) DeleteVersion(ctx *gin.Context) {
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

	if err := repo.DeleteDraft(id); err != nil {
		h.errorHandler(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "черновик удалён"})
}

// UpdateVersionDiscounts сохраняет точечные изменения ставок черновика
func (h *Handler) UpdateVersionDiscounts(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	var request dto.UpdateDiscountsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	updates := make([]repository.FieldUpdate, 0, len(request.Updates))
	for _, u := range request.Updates {
		propertyType, err := ds.ParsePropertyType(u.PropertyType)
		if err != nil {
			h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный тип недвижимости"))
			return
		}
		paymentMethod, err := ds.ParsePaymentMethod(u.PaymentMethod)
		if err != nil {
			h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный способ оплаты"))
			return
		}
		updates = append(updates, repository.FieldUpdate{
			ComplexName:   u.ComplexName,
			PropertyType:  propertyType,
			PaymentMethod: paymentMethod,
			Field:         u.Field,
			Value:         u.Value,
		})
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	changed, message, err := repo.UpdateDiscounts(id, updates, request.ChangeSummary)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"message":        message,
		"changed_fields": changed,
	})
}

// UpsertComplexComment сохраняет комментарий к ЖК в черновике
func (h *Handler) UpsertComplexComment(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	var request dto.ComplexCommentRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.UpsertComplexComment(id, request.ComplexName, request.Comment); err != nil {
		h.errorHandler(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ActivateVersion делает версию активной и рассылает сводку изменений.
// Письмо не отправляется при первой активации: сравнивать не с чем.
// @Summary Активация версии
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID версии"
// @Param request body dto.ActivateVersionRequest true "Комментарий активации"
// @Success 200 {object} map[string]interface{}
// @Router /api/company/versions/{id}/activate [post]
func (h *Handler) ActivateVersion(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	var request dto.ActivateVersionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	result, err := repo.ActivateVersion(id, request.Comment)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	email := pricing.RenderActivationEmail(result.Previous, result.Activated)
	if email != nil {
		diff := pricing.DiffVersions(result.Previous, result.Activated)
		h.dispatchActivationEmail(ctx, repo, result.Activated.ID, email, diff)
	}

	response := gin.H{
		"status":  "success",
		"message": "версия активирована",
		"data":    versionResponse(result.Activated),
	}
	if email != nil {
		response["notification"] = gin.H{"subject": email.Subject, "body": email.Body}
	}
	ctx.JSON(http.StatusOK, response)
}

// dispatchActivationEmail отправляет письмо получателям компании.
// Сбой почты не откатывает активацию, только логируется.
func (h *Handler) dispatchActivationEmail(ctx *gin.Context, repo *repository.TenantRepository, versionID uint, email *pricing.ActivationEmail, diff pricing.VersionDiff) {
	company, err := middleware.CompanyFromContext(ctx)
	if err != nil {
		logrus.Error("activation mail: ", err)
		return
	}

	recipients, err := h.Repository.Recipients(company.ID)
	if err != nil {
		logrus.Error("activation mail: cant load recipients: ", err)
		return
	}
	addresses := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addresses = append(addresses, r.Email)
	}

	sender := mail.NewSender(company)
	if err := sender.Send(email.Subject, email.Body, addresses); err != nil {
		logrus.Error("activation mail: ", err)
		return
	}

	if err := repo.MarkSummarySent(versionID, diff.JSON()); err != nil {
		logrus.Error("activation mail: cant mark summary sent: ", err)
	}
}

// GetVersionDiff сравнение двух версий
func (h *Handler) GetVersionDiff(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	otherID, err := parseIDParam(ctx, "other")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	base, err := repo.VersionByID(id)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}
	other, err := repo.VersionByID(otherID)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	diff := pricing.DiffVersions(base, other)
	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": diff})
}

// UploadVersionWorkbook импортирует книгу скидок в черновик.
// Исходный файл после успешного импорта уходит в архив MinIO.
func (h *Handler) UploadVersionWorkbook(ctx *gin.Context) {
	id, err := parseIDParam(ctx, "id")
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "файл не передан"))
		return
	}

	opened, err := file.Open()
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "не удалось открыть файл"))
		return
	}
	defer opened.Close()

	fileData, err := io.ReadAll(opened)
	if err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "не удалось прочитать файл"))
		return
	}

	discounts, err := excel.ParseDiscountWorkbook(bytes.NewReader(fileData))
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	repo, err := h.tenantRepo(ctx)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	version, err := repo.VersionByID(id)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	if err := repo.ReplaceDiscounts(id, discounts); err != nil {
		h.errorHandler(ctx, err)
		return
	}

	// Архивируем исходный файл для аудита
	if h.Storage != nil {
		company, err := middleware.CompanyFromContext(ctx)
		if err == nil {
			if _, err := h.Storage.ArchiveWorkbook(fileData, company.Subdomain, version.VersionNumber); err != nil {
				logrus.Error("workbook archive: ", err)
			}
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "скидки импортированы",
		"rows":    len(discounts),
	})
}

// GetDiscountTemplate выгружает шаблон книги скидок по текущим ЖК
func (h *Handler) GetDiscountTemplate(ctx *gin.Context) {
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

	data, err := excel.GenerateDiscountTemplate(complexes)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	filename := "discount_template_" + time.Now().Format("2006-01-02") + ".xlsx"
	ctx.Header("Content-Disposition", "attachment; filename="+filename)
	ctx.Data(http.StatusOK, workbookMIME, data)
}
