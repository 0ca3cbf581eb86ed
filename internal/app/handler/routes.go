package handler

import (
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/role"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все REST API маршруты. Маршруты внутри
// /api/company проходят через брокер соединений: на каждый запрос
// открывается и по завершении закрывается пара баз компании.
func (h *Handler) RegisterRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware, broker *middleware.TenantBroker) {
	api := router.Group("/api")

	// ============ Аутентификация ============
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.LoginUser)
		auth.POST("/logout", authMiddleware.WithAuthCheck(), h.LogoutUser)
		auth.GET("/profile", authMiddleware.WithAuthCheck(), h.GetUserProfile)
	}

	// ============ Администрирование компаний (суперадмин) ============
	admin := api.Group("/admin")
	admin.Use(authMiddleware.WithAuthCheck(role.ManageCompanies))
	{
		admin.GET("/companies", h.GetCompanies)
		admin.POST("/companies", h.ProvisionCompany)
	}

	// ============ Пользователи компании ============
	users := api.Group("/users")
	users.Use(authMiddleware.WithAuthCheck(role.ManageUsers))
	{
		users.GET("", h.GetCompanyUsers)
		users.POST("", h.RegisterUser)
		users.POST("/recipients/:id", h.AddRecipient)
		users.DELETE("/recipients/:id", h.RemoveRecipient)
	}

	// Всё, что ходит в базы компании, сидит за брокером соединений
	company := api.Group("/company")
	company.Use(authMiddleware.WithAuthCheck())
	company.Use(broker.WithTenantStores())
	{
		// ============ Версии скидок ============
		versions := company.Group("/versions")
		{
			versions.GET("", authMiddleware.WithAuthCheck(role.ViewVersionHistory), h.GetVersions)
			versions.GET("/active", authMiddleware.WithAuthCheck(role.ViewDiscounts), h.GetActiveVersion)
			versions.GET("/:id", authMiddleware.WithAuthCheck(role.ViewVersionHistory), h.GetVersion)
			versions.POST("", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.CreateVersion)
			versions.DELETE("/:id", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.DeleteVersion)
			versions.PUT("/:id/discounts", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.UpdateVersionDiscounts)
			versions.POST("/:id/activate", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.ActivateVersion)
			versions.POST("/:id/upload", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.UploadVersionWorkbook)
			versions.PUT("/:id/comments", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.UpsertComplexComment)
			versions.GET("/:id/diff/:other", authMiddleware.WithAuthCheck(role.ViewVersionHistory), h.GetVersionDiff)
		}
		company.GET("/discount-template", authMiddleware.WithAuthCheck(role.ManageDiscounts), h.GetDiscountTemplate)

		// ============ Подбор и калькуляторы ============
		selection := company.Group("/selection")
		selection.Use(authMiddleware.WithAuthCheck(role.ViewSelection))
		{
			selection.POST("/search", h.SearchByBudget)
			selection.GET("/apartments/:id", h.GetApartmentCard)
			selection.POST("/quote", h.QuoteUnit)
			selection.POST("/installment", h.CalculateInstallment)
			selection.POST("/dp-installment", h.CalculateDpInstallment)
			selection.GET("/complexes", h.GetComplexes)
		}

		// ============ Отчёты ============
		reports := company.Group("/reports")
		{
			reports.GET("/inventory", authMiddleware.WithAuthCheck(role.ViewInventory), h.GetInventoryReport)
			reports.GET("/inventory/export", authMiddleware.WithAuthCheck(role.ViewInventory), h.ExportInventoryReport)
			reports.GET("/plan-fact", authMiddleware.WithAuthCheck(role.ViewPlanFact), h.GetPlanFactReport)
			reports.POST("/plans", authMiddleware.WithAuthCheck(role.UploadData), h.UploadSalesPlans)
		}

		// ============ Настройки ============
		settings := company.Group("/settings")
		settings.Use(authMiddleware.WithAuthCheck(role.ManageSettings))
		{
			settings.GET("/currency", h.GetCurrencySettings)
			settings.PUT("/currency/source", h.SetRateSource)
			settings.PUT("/currency/manual-rate", h.SetManualRate)
			settings.POST("/currency/refresh", h.RefreshCbuRate)
			settings.GET("/calculators", h.GetCalculatorSettings)
			settings.PUT("/calculators", h.UpdateCalculatorSettings)
			settings.GET("/exclusions", h.GetExclusions)
			settings.POST("/exclusions/sells", h.ExcludeSell)
			settings.DELETE("/exclusions/sells/:id", h.IncludeSell)
			settings.POST("/exclusions/complexes", h.ExcludeComplex)
			settings.DELETE("/exclusions/complexes/:name", h.IncludeComplex)
		}
	}

	// Ping эндпоинт для проверки
	router.GET("/ping", h.Ping)
}
