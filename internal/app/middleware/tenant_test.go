package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func setupControlRepo(t *testing.T) (*repository.Repository, *ds.User) {
	t.Helper()
	repo, err := repository.NewWithDB(openTestDB(t))
	require.NoError(t, err)

	company := ds.Company{
		Name:       "Тестовая компания",
		Subdomain:  "test",
		LocalDBURI: "unused",
	}
	user := &ds.User{
		Username:     "manager",
		FullName:     "Тестовый менеджер",
		Email:        "manager@test.uz",
		PasswordHash: "hash",
		Company:      &company,
	}
	require.NoError(t, repo.CreateUser(user))
	return repo, user
}

// fakeOpener подменяет открытие баз компании и запоминает выданные
// соединения, чтобы проверить их закрытие
type fakeOpener struct {
	t      *testing.T
	opened []*repository.TenantStores
	fail   error
}

func (f *fakeOpener) open(company *ds.Company) (*repository.TenantStores, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	stores := &repository.TenantStores{Local: openTestDB(f.t)}
	f.opened = append(f.opened, stores)
	return stores, nil
}

func localClosed(t *testing.T, stores *repository.TenantStores) bool {
	t.Helper()
	sqlDB, err := stores.Local.DB()
	require.NoError(t, err)
	return sqlDB.Ping() != nil
}

func newBrokerRouter(t *testing.T, repo *repository.Repository, opener *fakeOpener, userID uint, handler gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())

	broker := &TenantBroker{Repository: repo, Open: opener.open}
	router.GET("/probe",
		func(gCtx *gin.Context) { gCtx.Set("userID", userID) },
		broker.WithTenantStores(),
		handler,
	)
	return router
}

func TestWithTenantStores_OpensAndCloses(t *testing.T) {
	repo, user := setupControlRepo(t)
	opener := &fakeOpener{t: t}

	var sawStores bool
	router := newBrokerRouter(t, repo, opener, user.ID, func(gCtx *gin.Context) {
		stores, err := StoresFromContext(gCtx)
		require.NoError(t, err)
		require.NotNil(t, stores.Local)

		company, err := CompanyFromContext(gCtx)
		require.NoError(t, err)
		assert.Equal(t, "test", company.Subdomain)

		sawStores = true
		gCtx.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawStores)

	// Соединение закрыто после ответа
	require.Len(t, opener.opened, 1)
	assert.True(t, localClosed(t, opener.opened[0]))
}

func TestWithTenantStores_UnknownUser(t *testing.T) {
	repo, _ := setupControlRepo(t)
	opener := &fakeOpener{t: t}

	router := newBrokerRouter(t, repo, opener, 9999, func(gCtx *gin.Context) {
		t.Fatal("обработчик не должен вызываться")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, opener.opened)
}

func TestWithTenantStores_OpenFailure(t *testing.T) {
	repo, user := setupControlRepo(t)
	opener := &fakeOpener{
		t:    t,
		fail: apperr.Wrap(apperr.Infrastructure, errors.New("connection refused"), "база компании недоступна"),
	}

	router := newBrokerRouter(t, repo, opener, user.ID, func(gCtx *gin.Context) {
		t.Fatal("обработчик не должен вызываться")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "база компании недоступна")
}

func TestWithTenantStores_ClosesOnPanic(t *testing.T) {
	repo, user := setupControlRepo(t)
	opener := &fakeOpener{t: t}

	router := newBrokerRouter(t, repo, opener, user.ID, func(gCtx *gin.Context) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, opener.opened, 1)
	assert.True(t, localClosed(t, opener.opened[0]))
}

func TestStoresFromContext_NotInitialized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gCtx, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := StoresFromContext(gCtx)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Infrastructure))

	_, err = CompanyFromContext(gCtx)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Authorization))
}
