package repository

import (
	"testing"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTenantRepo(t *testing.T) *TenantRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Одно соединение, иначе каждый коннект пула видит свою пустую базу
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, MigrateLocalStore(db))
	return NewTenantRepository(db)
}

func seedDiscount(t *testing.T, repo *TenantRepository, versionID uint, complexName string, mpp, rop, action float64) {
	t.Helper()
	err := repo.db.Create(&ds.Discount{
		VersionID:     versionID,
		ComplexName:   complexName,
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Mpp:           mpp,
		Rop:           rop,
		Action:        action,
	}).Error
	require.NoError(t, err)
}

func TestCreateDraft_NumbersGrow(t *testing.T) {
	repo := setupTenantRepo(t)

	first, err := repo.CreateDraft("первый черновик")
	require.NoError(t, err)
	assert.Equal(t, 1, first.VersionNumber)
	assert.False(t, first.IsActive)
	assert.False(t, first.WasEverActivated)

	second, err := repo.CreateDraft("")
	require.NoError(t, err)
	assert.Equal(t, 2, second.VersionNumber)

	// Номер удалённого черновика не переиспользуется
	require.NoError(t, repo.DeleteDraft(second.ID))
	third, err := repo.CreateDraft("")
	require.NoError(t, err)
	assert.Equal(t, 3, third.VersionNumber)
}

func TestActivateVersion_SingleActive(t *testing.T) {
	repo := setupTenantRepo(t)

	v1, err := repo.CreateDraft("версия 1")
	require.NoError(t, err)
	v2, err := repo.CreateDraft("версия 2")
	require.NoError(t, err)

	result, err := repo.ActivateVersion(v1.ID, "")
	require.NoError(t, err)
	assert.Nil(t, result.Previous)
	assert.True(t, result.Activated.IsActive)
	assert.True(t, result.Activated.WasEverActivated)

	result, err = repo.ActivateVersion(v2.ID, "переключение")
	require.NoError(t, err)
	require.NotNil(t, result.Previous)
	assert.Equal(t, v1.ID, result.Previous.ID)
	assert.Equal(t, "переключение", result.Activated.Comment)

	// Активная версия всегда ровно одна
	var activeCount int64
	require.NoError(t, repo.db.Model(&ds.DiscountVersion{}).
		Where("is_active = ?", true).Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)

	active, err := repo.ActiveVersion()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v2.ID, active.ID)

	// Деактивированная версия сохраняет флаг was_ever_activated
	old, err := repo.VersionByID(v1.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.True(t, old.WasEverActivated)
}

func TestActivateVersion_AlreadyActive(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	_, err = repo.ActivateVersion(v.ID, "")
	require.NoError(t, err)

	_, err = repo.ActivateVersion(v.ID, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestActivateVersion_ClearsStrayActiveRows(t *testing.T) {
	repo := setupTenantRepo(t)

	v1, err := repo.CreateDraft("")
	require.NoError(t, err)
	v2, err := repo.CreateDraft("")
	require.NoError(t, err)
	v3, err := repo.CreateDraft("")
	require.NoError(t, err)

	// Параллельная активация могла прочитать устаревшую активную версию
	// и оставить две активные строки; воспроизводим это состояние напрямую
	require.NoError(t, repo.db.Model(&ds.DiscountVersion{}).
		Where("id IN ?", []uint{v1.ID, v2.ID}).
		Update("is_active", true).Error)

	_, err = repo.ActivateVersion(v3.ID, "")
	require.NoError(t, err)

	// Активация гасит все активные строки, а не только одну прочитанную
	var activeCount int64
	require.NoError(t, repo.db.Model(&ds.DiscountVersion{}).
		Where("is_active = ?", true).Count(&activeCount).Error)
	assert.EqualValues(t, 1, activeCount)

	active, err := repo.ActiveVersion()
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v3.ID, active.ID)
}

func TestActiveVersion_NoneActivated(t *testing.T) {
	repo := setupTenantRepo(t)

	_, err := repo.CreateDraft("черновик без активации")
	require.NoError(t, err)

	active, err := repo.ActiveVersion()
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestDeleteDraft_ActivatedIsProtected(t *testing.T) {
	repo := setupTenantRepo(t)

	v1, err := repo.CreateDraft("")
	require.NoError(t, err)
	v2, err := repo.CreateDraft("")
	require.NoError(t, err)

	_, err = repo.ActivateVersion(v1.ID, "")
	require.NoError(t, err)
	// Версию снимаем с активности, но удалять её всё равно нельзя
	_, err = repo.ActivateVersion(v2.ID, "")
	require.NoError(t, err)

	err = repo.DeleteDraft(v1.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Permission))

	// Сама версия на месте
	_, err = repo.VersionByID(v1.ID)
	require.NoError(t, err)
}

func TestDeleteDraft_RemovesChildren(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	seedDiscount(t, repo, v.ID, "Солнечный", 0.03, 0.02, 0.01)
	require.NoError(t, repo.UpsertComplexComment(v.ID, "Солнечный", "скидка до конца месяца"))

	require.NoError(t, repo.DeleteDraft(v.ID))

	var discounts int64
	require.NoError(t, repo.db.Model(&ds.Discount{}).Count(&discounts).Error)
	assert.EqualValues(t, 0, discounts)

	var comments int64
	require.NoError(t, repo.db.Model(&ds.ComplexComment{}).Count(&comments).Error)
	assert.EqualValues(t, 0, comments)
}

func TestCloneForEditing_CopiesEverything(t *testing.T) {
	repo := setupTenantRepo(t)

	source, err := repo.CreateDraft("исходная")
	require.NoError(t, err)
	seedDiscount(t, repo, source.ID, "Солнечный", 0.03, 0.02, 0.01)
	seedDiscount(t, repo, source.ID, "Ривьера", 0.05, 0.0, 0.0)
	require.NoError(t, repo.UpsertComplexComment(source.ID, "Ривьера", "сдача в декабре"))
	_, err = repo.ActivateVersion(source.ID, "")
	require.NoError(t, err)

	draft, err := repo.CloneForEditing(source.ID, "")
	require.NoError(t, err)

	assert.Equal(t, source.VersionNumber+1, draft.VersionNumber)
	assert.Equal(t, "исходная", draft.Comment)
	assert.False(t, draft.IsActive)
	assert.False(t, draft.WasEverActivated)
	assert.Len(t, draft.Discounts, 2)
	assert.Len(t, draft.ComplexComments, 1)

	// Скидки совпадают по значениям, но живут отдельными строками
	for _, d := range draft.Discounts {
		assert.Equal(t, draft.ID, d.VersionID)
	}
}

func TestCloneForEditing_CommentOverride(t *testing.T) {
	repo := setupTenantRepo(t)

	source, err := repo.CreateDraft("исходная")
	require.NoError(t, err)

	draft, err := repo.CloneForEditing(source.ID, "правки на октябрь")
	require.NoError(t, err)
	assert.Equal(t, "правки на октябрь", draft.Comment)
}

func TestUpdateDiscounts_NoChangesRollsBack(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	seedDiscount(t, repo, v.ID, "Солнечный", 0.03, 0.02, 0.01)

	updates := []FieldUpdate{
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "mpp", Value: 0.03},
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "rop", Value: 0.02},
	}
	changed, message, err := repo.UpdateDiscounts(v.ID, updates, `{"modified":[]}`)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, "изменений не обнаружено, сохранение отменено", message)

	// Сводка при откате не сохраняется
	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.ChangesSummaryJSON)
}

func TestUpdateDiscounts_MixedChanges(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	seedDiscount(t, repo, v.ID, "Солнечный", 0.03, 0.02, 0.01)

	updates := []FieldUpdate{
		// Без изменений, пропускается
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "mpp", Value: 0.03},
		// Реальное изменение
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "rop", Value: 0.04},
		// Связки нет в версии: правка игнорируется, строка не заводится
		{ComplexName: "Ривьера", PropertyType: ds.PropertyFlat, PaymentMethod: ds.Mortgage, Field: "kd", Value: 0.015},
	}
	changed, _, err := repo.UpdateDiscounts(v.ID, updates, `{"modified":["rop"]}`)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"modified":["rop"]}`, reloaded.ChangesSummaryJSON)
	assert.Len(t, reloaded.Discounts, 1)
	assert.InDelta(t, 0.04, reloaded.Discounts[0].Rop, 1e-12)
}

func TestUpdateDiscounts_UnknownKeysOnly(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	seedDiscount(t, repo, v.ID, "Солнечный", 0.03, 0.02, 0.01)

	// Все правки мимо существующих связок: откат, как при пустом изменении
	updates := []FieldUpdate{
		{ComplexName: "Ривьера", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "mpp", Value: 0.05},
		{ComplexName: "Солнечный", PropertyType: ds.PropertyParking, PaymentMethod: ds.FullPayment, Field: "rop", Value: 0.02},
	}
	changed, message, err := repo.UpdateDiscounts(v.ID, updates, `{"modified":["mpp"]}`)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)
	assert.Equal(t, "изменений не обнаружено, сохранение отменено", message)

	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.ChangesSummaryJSON)
	assert.Len(t, reloaded.Discounts, 1)
}

func TestUpdateDiscounts_ActiveVersionRejected(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	_, err = repo.ActivateVersion(v.ID, "")
	require.NoError(t, err)

	updates := []FieldUpdate{
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Field: "mpp", Value: 0.05},
	}
	_, _, err = repo.UpdateDiscounts(v.ID, updates, "")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Permission))
}

func TestReplaceDiscounts(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)
	seedDiscount(t, repo, v.ID, "Старый", 0.01, 0.01, 0.0)

	rows := []ds.Discount{
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.FullPayment, Mpp: 0.03},
		{ComplexName: "Солнечный", PropertyType: ds.PropertyFlat, PaymentMethod: ds.Mortgage, Mpp: 0.02},
	}
	require.NoError(t, repo.ReplaceDiscounts(v.ID, rows))

	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Discounts, 2)
	for _, d := range reloaded.Discounts {
		assert.Equal(t, "Солнечный", d.ComplexName)
	}
}

func TestUpsertComplexComment_Overwrites(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)

	require.NoError(t, repo.UpsertComplexComment(v.ID, "Солнечный", "первый"))
	require.NoError(t, repo.UpsertComplexComment(v.ID, "Солнечный", "второй"))

	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.ComplexComments, 1)
	assert.Equal(t, "второй", reloaded.ComplexComments[0].Comment)
}

func TestVersionByID_NotFound(t *testing.T) {
	repo := setupTenantRepo(t)

	_, err := repo.VersionByID(999)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestMarkSummarySent(t *testing.T) {
	repo := setupTenantRepo(t)

	v, err := repo.CreateDraft("")
	require.NoError(t, err)

	require.NoError(t, repo.MarkSummarySent(v.ID, `{"added":[]}`))

	reloaded, err := repo.VersionByID(v.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"added":[]}`, reloaded.ChangesSummaryJSON)
	assert.NotNil(t, reloaded.SummarySentAt)
}
