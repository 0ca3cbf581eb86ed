package repository

import (
	"errors"
	"strconv"
	"strings"

	"apartment-finder/internal/app/ds"

	"gorm.io/gorm"
)

// CalculatorSettings возвращает настройки калькуляторов, создавая
// запись со значениями по умолчанию при первом обращении.
func (r *TenantRepository) CalculatorSettings() (*ds.CalculatorSettings, error) {
	var settings ds.CalculatorSettings
	err := r.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = ds.CalculatorSettings{
			DpInstallmentMaxTerm:     6,
			TimeValueRateAnnual:      16.5,
			StandardInstallmentMinDp: 15.0,
		}
		if err := r.db.Create(&settings).Error; err != nil {
			return nil, err
		}
		return &settings, nil
	}
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *TenantRepository) SaveCalculatorSettings(settings *ds.CalculatorSettings) error {
	return r.db.Save(settings).Error
}

// FormatWhitelist собирает набор ID обратно в CSV-строку
func FormatWhitelist(ids []uint) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, ",")
}

// ============ Исключения из подбора и отчётов ============

func (r *TenantRepository) ExcludeSell(sellID uint, comment string) error {
	var existing ds.ExcludedSell
	err := r.db.Where("sell_id = ?", sellID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&ds.ExcludedSell{SellID: sellID, Comment: comment}).Error
}

func (r *TenantRepository) IncludeSell(sellID uint) error {
	return r.db.Where("sell_id = ?", sellID).Delete(&ds.ExcludedSell{}).Error
}

func (r *TenantRepository) ExcludedSellIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&ds.ExcludedSell{}).Pluck("sell_id", &ids).Error
	return ids, err
}

func (r *TenantRepository) ExcludeComplex(name string) error {
	var existing ds.ExcludedComplex
	err := r.db.Where("complex_name = ?", name).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&ds.ExcludedComplex{ComplexName: name}).Error
}

func (r *TenantRepository) IncludeComplex(name string) error {
	return r.db.Where("complex_name = ?", name).Delete(&ds.ExcludedComplex{}).Error
}

func (r *TenantRepository) ExcludedComplexNames() ([]string, error) {
	var names []string
	err := r.db.Model(&ds.ExcludedComplex{}).Pluck("complex_name", &names).Error
	return names, err
}

// ============ Планы продаж ============

// UpsertSalesPlan сохраняет план на месяц по связке (ЖК, тип, период)
func (r *TenantRepository) UpsertSalesPlan(plan *ds.SalesPlan) error {
	var existing ds.SalesPlan
	err := r.db.Where(
		"complex_name = ? AND property_type = ? AND year = ? AND month = ?",
		plan.ComplexName, plan.PropertyType, plan.Year, plan.Month,
	).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.Create(plan).Error
	}
	if err != nil {
		return err
	}

	existing.PlanUnits = plan.PlanUnits
	existing.PlanVolume = plan.PlanVolume
	existing.PlanIncome = plan.PlanIncome
	return r.db.Save(&existing).Error
}

func (r *TenantRepository) SalesPlans(year, month int) ([]ds.SalesPlan, error) {
	var plans []ds.SalesPlan
	err := r.db.Where("year = ? AND month = ?", year, month).
		Order("complex_name").
		Find(&plans).Error
	return plans, err
}
