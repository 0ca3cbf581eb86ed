package repository

import (
	"testing"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEstateRepo(t *testing.T) *EstateRepository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Одно соединение, иначе каждый коннект пула видит свою пустую базу
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&ds.EstateHouse{}, &ds.EstateSell{}, &ds.EstateDeal{}, &ds.FinanceOperation{}))
	return NewEstateRepository(db)
}

func seedSell(t *testing.T, repo *EstateRepository, houseID uint, status string, rooms int, area, price float64) uint {
	t.Helper()
	sell := ds.EstateSell{
		HouseID:              houseID,
		EstateSellCategory:   "flat",
		EstateSellStatusName: status,
		EstateRooms:          rooms,
		EstateArea:           area,
		EstatePrice:          price,
	}
	require.NoError(t, repo.db.Create(&sell).Error)
	return sell.ID
}

// Выгрузка не настроена: выборки пустые, ошибок нет
func TestEstateRepository_Degraded(t *testing.T) {
	repo := NewEstateRepository(nil)

	assert.False(t, repo.Available())

	sells, err := repo.Sells(SellFilter{Statuses: []string{"Свободна"}})
	require.NoError(t, err)
	assert.Empty(t, sells)

	complexes, err := repo.DistinctComplexes()
	require.NoError(t, err)
	assert.Empty(t, complexes)

	statuses, err := repo.DistinctStatuses()
	require.NoError(t, err)
	assert.Empty(t, statuses)

	deals, err := repo.DealsInPeriod([]string{"Сделка проведена"}, 2026, 8)
	require.NoError(t, err)
	assert.Empty(t, deals)

	paid, err := repo.PaymentsTotal(1)
	require.NoError(t, err)
	assert.Zero(t, paid)

	_, err = repo.SellByID(1)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestPaymentsTotal(t *testing.T) {
	repo := setupEstateRepo(t)

	house := ds.EstateHouse{ComplexName: "Восход"}
	require.NoError(t, repo.db.Create(&house).Error)
	sellID := seedSell(t, repo, house.ID, "Продана", 2, 55.0, 80_000_000)
	other := seedSell(t, repo, house.ID, "Продана", 1, 35.0, 50_000_000)

	for _, summa := range []float64{10_000_000, 5_500_000} {
		require.NoError(t, repo.db.Create(&ds.FinanceOperation{
			EstateSellID: sellID,
			Summa:        summa,
			StatusName:   "Проведён",
		}).Error)
	}
	require.NoError(t, repo.db.Create(&ds.FinanceOperation{
		EstateSellID: other,
		Summa:        1_000_000,
	}).Error)

	total, err := repo.PaymentsTotal(sellID)
	require.NoError(t, err)
	assert.InDelta(t, 15_500_000, total, 0.01)

	// Объект без платежей
	empty := seedSell(t, repo, house.ID, "Свободна", 3, 90.0, 150_000_000)
	total, err = repo.PaymentsTotal(empty)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSells_Filtering(t *testing.T) {
	repo := setupEstateRepo(t)

	house := ds.EstateHouse{ComplexName: "Восход", Name: "Дом 1"}
	require.NoError(t, repo.db.Create(&house).Error)

	cheap := seedSell(t, repo, house.ID, "Свободна", 1, 35.0, 50_000_000)
	mid := seedSell(t, repo, house.ID, "Свободна", 2, 55.0, 80_000_000)
	seedSell(t, repo, house.ID, "Продана", 2, 55.0, 81_000_000)
	seedSell(t, repo, house.ID, "Свободна", 3, 90.0, 150_000_000)

	sells, err := repo.Sells(SellFilter{
		Statuses:     []string{"Свободна"},
		PriceCeiling: 100_000_000,
	})
	require.NoError(t, err)
	require.Len(t, sells, 2)
	// Сортировка по цене, дома подгружены
	assert.Equal(t, cheap, sells[0].ID)
	assert.Equal(t, mid, sells[1].ID)
	require.NotNil(t, sells[0].House)
	assert.Equal(t, "Восход", sells[0].House.ComplexName)

	// Исключённые объекты не попадают в подбор
	sells, err = repo.Sells(SellFilter{
		Statuses:    []string{"Свободна"},
		ExcludedIDs: []uint{cheap},
	})
	require.NoError(t, err)
	for _, s := range sells {
		assert.NotEqual(t, cheap, s.ID)
	}

	sells, err = repo.Sells(SellFilter{RoomsMin: 2, RoomsMax: 2, Statuses: []string{"Свободна"}})
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, mid, sells[0].ID)
}

func TestSellByID_LoadsHouse(t *testing.T) {
	repo := setupEstateRepo(t)

	house := ds.EstateHouse{ComplexName: "Закат"}
	require.NoError(t, repo.db.Create(&house).Error)
	id := seedSell(t, repo, house.ID, "Свободна", 2, 60.0, 95_000_000)

	sell, err := repo.SellByID(id)
	require.NoError(t, err)
	require.NotNil(t, sell.House)
	assert.Equal(t, "Закат", sell.House.ComplexName)

	_, err = repo.SellByID(id + 100)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestDealsInPeriod_Boundaries(t *testing.T) {
	repo := setupEstateRepo(t)

	house := ds.EstateHouse{ComplexName: "Восход"}
	require.NoError(t, repo.db.Create(&house).Error)
	sellID := seedSell(t, repo, house.ID, "Продана", 2, 55.0, 80_000_000)

	mkDeal := func(status string, when time.Time) {
		d := when
		require.NoError(t, repo.db.Create(&ds.EstateDeal{
			EstateSellID:   sellID,
			DealStatusName: status,
			DealSum:        80_000_000,
			DealDate:       &d,
		}).Error)
	}

	mkDeal("Сделка проведена", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	mkDeal("Сделка проведена", time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC))
	// За границами месяца и с чужим статусом
	mkDeal("Сделка проведена", time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	mkDeal("Бронь", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))

	deals, err := repo.DealsInPeriod([]string{"Сделка проведена"}, 2026, 8)
	require.NoError(t, err)
	require.Len(t, deals, 2)
	require.NotNil(t, deals[0].Sell)
	assert.Equal(t, "Восход", deals[0].Sell.House.ComplexName)
}
