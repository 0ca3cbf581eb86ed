package repository

import (
	"errors"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"gorm.io/gorm"
)

// EstateRepository читает операционную базу CRM. Соединение может
// отсутствовать (выгрузка не настроена): тогда списки возвращаются
// пустыми, а точечные запросы отвечают "не найдено". Записи в эту
// базу не выполняются никогда.
type EstateRepository struct {
	db *gorm.DB
}

func NewEstateRepository(db *gorm.DB) *EstateRepository {
	return &EstateRepository{db: db}
}

// Available сообщает, подключена ли операционная база
func (r *EstateRepository) Available() bool {
	return r != nil && r.db != nil
}

func (r *EstateRepository) SellByID(id uint) (*ds.EstateSell, error) {
	if !r.Available() {
		return nil, apperr.New(apperr.NotFound, "объект не найден")
	}
	var sell ds.EstateSell
	err := r.db.Preload("House").First(&sell, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "объект не найден")
	}
	if err != nil {
		return nil, err
	}
	return &sell, nil
}

// SellFilter — параметры подбора по операционной базе
type SellFilter struct {
	Statuses     []string
	Complexes    []string
	Category     string
	RoomsMin     int
	RoomsMax     int
	AreaMin      float64
	AreaMax      float64
	FloorMin     int
	FloorMax     int
	ExcludedIDs  []uint
	PriceCeiling float64
}

// Sells возвращает предложения по фильтру. Без операционной базы
// выборка пуста, ошибки нет.
func (r *EstateRepository) Sells(filter SellFilter) ([]ds.EstateSell, error) {
	if !r.Available() {
		return []ds.EstateSell{}, nil
	}

	q := r.db.Model(&ds.EstateSell{}).Preload("House").
		Joins("JOIN estate_houses ON estate_houses.id = estate_sells.house_id")

	if len(filter.Statuses) > 0 {
		q = q.Where("estate_sells.estate_sell_status_name IN ?", filter.Statuses)
	}
	if len(filter.Complexes) > 0 {
		q = q.Where("estate_houses.complex_name IN ?", filter.Complexes)
	}
	if filter.Category != "" {
		q = q.Where("estate_sells.estate_sell_category = ?", filter.Category)
	}
	if filter.RoomsMin > 0 {
		q = q.Where("estate_sells.estate_rooms >= ?", filter.RoomsMin)
	}
	if filter.RoomsMax > 0 {
		q = q.Where("estate_sells.estate_rooms <= ?", filter.RoomsMax)
	}
	if filter.AreaMin > 0 {
		q = q.Where("estate_sells.estate_area >= ?", filter.AreaMin)
	}
	if filter.AreaMax > 0 {
		q = q.Where("estate_sells.estate_area <= ?", filter.AreaMax)
	}
	if filter.FloorMin > 0 {
		q = q.Where("estate_sells.estate_floor >= ?", filter.FloorMin)
	}
	if filter.FloorMax > 0 {
		q = q.Where("estate_sells.estate_floor <= ?", filter.FloorMax)
	}
	if len(filter.ExcludedIDs) > 0 {
		q = q.Where("estate_sells.id NOT IN ?", filter.ExcludedIDs)
	}
	if filter.PriceCeiling > 0 {
		q = q.Where("estate_sells.estate_price <= ?", filter.PriceCeiling)
	}

	var sells []ds.EstateSell
	err := q.Order("estate_sells.estate_price").Find(&sells).Error
	if err != nil {
		return nil, err
	}
	return sells, nil
}

// DistinctComplexes перечисляет ЖК для списков фильтров
func (r *EstateRepository) DistinctComplexes() ([]string, error) {
	if !r.Available() {
		return []string{}, nil
	}
	var names []string
	err := r.db.Model(&ds.EstateHouse{}).
		Distinct("complex_name").
		Where("complex_name <> ''").
		Order("complex_name").
		Pluck("complex_name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// DistinctStatuses перечисляет статусы предложений для настроек компании
func (r *EstateRepository) DistinctStatuses() ([]string, error) {
	if !r.Available() {
		return []string{}, nil
	}
	var statuses []string
	err := r.db.Model(&ds.EstateSell{}).
		Distinct("estate_sell_status_name").
		Where("estate_sell_status_name <> ''").
		Order("estate_sell_status_name").
		Pluck("estate_sell_status_name", &statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

// PaymentsTotal суммирует поступившие платежи по объекту
func (r *EstateRepository) PaymentsTotal(sellID uint) (float64, error) {
	if !r.Available() {
		return 0, nil
	}
	var total float64
	err := r.db.Model(&ds.FinanceOperation{}).
		Where("estate_sell_id = ?", sellID).
		Select("COALESCE(SUM(summa), 0)").
		Scan(&total).Error
	return total, err
}

// DealsInPeriod возвращает сделки с перечисленными статусами за месяц
func (r *EstateRepository) DealsInPeriod(statuses []string, year, month int) ([]ds.EstateDeal, error) {
	if !r.Available() {
		return []ds.EstateDeal{}, nil
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var deals []ds.EstateDeal
	q := r.db.Model(&ds.EstateDeal{}).Preload("Sell.House").
		Where("deal_date >= ? AND deal_date < ?", from, to)
	if len(statuses) > 0 {
		q = q.Where("deal_status_name IN ?", statuses)
	}
	err := q.Find(&deals).Error
	if err != nil {
		return nil, err
	}
	return deals, nil
}
