package middleware

import (
	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	ctxStores    = "tenantStores"
	ctxCompany   = "company"
	ctxRequestID = "requestID"
)

// TenantBroker открывает на каждый запрос пару соединений с базами
// компании пользователя и гарантированно закрывает их по завершении,
// в том числе при панике в обработчике. Соединения живут только в
// контексте запроса, между запросами ничего не переиспользуется.
type TenantBroker struct {
	Repository *repository.Repository
	Open       repository.StoreOpener
}

func NewTenantBroker(r *repository.Repository) *TenantBroker {
	return &TenantBroker{
		Repository: r,
		Open:       repository.OpenStores,
	}
}

// WithTenantStores — middleware брокера. Ставится после WithAuthCheck:
// компания берётся по пользователю из токена. Пользователь без компании
// не обслуживается.
func (b *TenantBroker) WithTenantStores() gin.HandlerFunc {
	return func(gCtx *gin.Context) {
		requestID := uuid.NewString()
		gCtx.Set(ctxRequestID, requestID)

		userID := gCtx.GetUint("userID")
		user, err := b.Repository.UserByID(userID)
		if err != nil {
			abortWithError(gCtx, apperr.Wrap(apperr.Authorization, err, "пользователь не найден"))
			return
		}
		if user.Company == nil {
			// Записи без компании не существует по схеме, но токен мог
			// пережить удаление компании
			abortWithError(gCtx, apperr.New(apperr.Authorization, "пользователь не привязан к компании"))
			return
		}

		stores, err := b.Open(user.Company)
		if err != nil {
			log.WithFields(log.Fields{
				"request_id": requestID,
				"company":    user.Company.Subdomain,
			}).Error("cant open tenant stores: ", err)
			abortWithError(gCtx, err)
			return
		}

		gCtx.Set(ctxCompany, user.Company)
		gCtx.Set(ctxStores, stores)

		// Закрытие соединений обязано пережить панику обработчика:
		// defer срабатывает до recovery-механизма gin
		defer stores.Close()

		gCtx.Next()
	}
}

func abortWithError(gCtx *gin.Context, err error) {
	gCtx.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
		"status":      "error",
		"description": err.Error(),
	})
}

// StoresFromContext достаёт соединения компании, положенные брокером
func StoresFromContext(gCtx *gin.Context) (*repository.TenantStores, error) {
	value, ok := gCtx.Get(ctxStores)
	if !ok {
		return nil, apperr.New(apperr.Infrastructure, "соединения компании не инициализированы")
	}
	stores, ok := value.(*repository.TenantStores)
	if !ok || stores == nil {
		return nil, apperr.New(apperr.Infrastructure, "соединения компании не инициализированы")
	}
	return stores, nil
}

// CompanyFromContext достаёт компанию текущего запроса
func CompanyFromContext(gCtx *gin.Context) (*ds.Company, error) {
	value, ok := gCtx.Get(ctxCompany)
	if !ok {
		return nil, apperr.New(apperr.Authorization, "компания запроса не определена")
	}
	company, ok := value.(*ds.Company)
	if !ok || company == nil {
		return nil, apperr.New(apperr.Authorization, "компания запроса не определена")
	}
	return company, nil
}
