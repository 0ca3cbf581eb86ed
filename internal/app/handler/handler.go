package handler

import (
	"strconv"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/cbu"
	"apartment-finder/internal/app/config"
	"apartment-finder/internal/app/middleware"
	"apartment-finder/internal/app/redis"
	"apartment-finder/internal/app/repository"
	"apartment-finder/internal/app/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	Repository  *repository.Repository
	RedisClient *redis.Client
	Config      *config.Config
	Storage     *storage.MinIOClient
	Cbu         *cbu.Client
}

func NewHandler(r *repository.Repository, redisClient *redis.Client, cfg *config.Config, minioClient *storage.MinIOClient, cbuClient *cbu.Client) *Handler {
	return &Handler{
		Repository:  r,
		RedisClient: redisClient,
		Config:      cfg,
		Storage:     minioClient,
		Cbu:         cbuClient,
	}
}

// Централизованная обработка ошибок: класс ошибки переводится
// в HTTP-статус, текст уходит пользователю как есть
func (h *Handler) errorHandler(ctx *gin.Context, err error) {
	logrus.Error(err.Error())
	ctx.JSON(apperr.HTTPStatus(err), gin.H{
		"status":      "error",
		"description": err.Error(),
	})
}

// tenantRepo достаёт репозиторий локальной базы компании из контекста запроса
func (h *Handler) tenantRepo(ctx *gin.Context) (*repository.TenantRepository, error) {
	stores, err := middleware.StoresFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewTenantRepository(stores.Local), nil
}

// estateRepo достаёт репозиторий операционной базы; при отсутствии
// выгрузки репозиторий отвечает пустыми выборками
func (h *Handler) estateRepo(ctx *gin.Context) (*repository.EstateRepository, error) {
	stores, err := middleware.StoresFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewEstateRepository(stores.Remote), nil
}

// parseIDParam читает числовой параметр пути
func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.New(apperr.Validation, "некорректный идентификатор %q", ctx.Param(name))
	}
	return uint(id), nil
}

// Ping эндпоинт для проверки
func (h *Handler) Ping(ctx *gin.Context) {
	ctx.JSON(200, gin.H{"status": "ok"})
}
