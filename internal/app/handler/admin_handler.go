package handler

import (
	"net/http"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/dto"

	"github.com/gin-gonic/gin"
)

// GetCompanies список зарегистрированных компаний
// @Summary Список компаний
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CompanyResponse
// @Router /api/admin/companies [get]
func (h *Handler) GetCompanies(ctx *gin.Context) {
	companies, err := h.Repository.Companies()
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	responses := make([]dto.CompanyResponse, 0, len(companies))
	for i := range companies {
		responses = append(responses, dto.CompanyResponse{
			ID:             companies[i].ID,
			Name:           companies[i].Name,
			Subdomain:      companies[i].Subdomain,
			HasRemoteStore: companies[i].HasRemoteStore(),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": responses})
}

// ProvisionCompany регистрация новой компании. Локальная база компании
// мигрируется до записи в реестр, компания с недоступной базой не
// регистрируется. Вместе с компанией создаётся её администратор.
// @Summary Регистрация компании
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param company body dto.ProvisionCompanyRequest true "Данные компании"
// @Success 201 {object} dto.CompanyResponse
// @Router /api/admin/companies [post]
func (h *Handler) ProvisionCompany(ctx *gin.Context) {
	var request dto.ProvisionCompanyRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		h.errorHandler(ctx, apperr.Wrap(apperr.Validation, err, "некорректный запрос"))
		return
	}

	company := &ds.Company{
		Name:              request.Name,
		Subdomain:         request.Subdomain,
		LocalDBURI:        request.LocalDBURI,
		RemoteDBURI:       request.RemoteDBURI,
		MailServer:        request.MailServer,
		MailPort:          request.MailPort,
		MailUseTLS:        request.MailUseTLS,
		MailUsername:      request.MailUsername,
		MailPassword:      request.MailPassword,
		DealStatuses:      request.DealStatuses,
		InventoryStatuses: request.InventoryStatuses,
	}
	if company.MailPort == 0 {
		company.MailPort = 587
	}

	created, err := h.Repository.ProvisionCompany(
		company,
		request.AdminUsername,
		request.AdminEmail,
		generateHashString(request.AdminPassword),
	)
	if err != nil {
		h.errorHandler(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"data": dto.CompanyResponse{
			ID:             created.ID,
			Name:           created.Name,
			Subdomain:      created.Subdomain,
			HasRemoteStore: created.HasRemoteStore(),
		},
	})
}
