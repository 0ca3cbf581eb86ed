package repository

import (
	"errors"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"gorm.io/gorm"
)

// CurrencySettings возвращает настройки курса, создавая запись
// с настройками по умолчанию при первом обращении.
func (r *TenantRepository) CurrencySettings() (*ds.CurrencySettings, error) {
	var settings ds.CurrencySettings
	err := r.db.First(&settings).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = ds.CurrencySettings{RateSource: ds.RateSourceCBU}
		settings.UpdateEffectiveRate()
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

// SetRateSource переключает источник курса и пересчитывает действующий курс
func (r *TenantRepository) SetRateSource(source string) (*ds.CurrencySettings, error) {
	if source != ds.RateSourceCBU && source != ds.RateSourceManual {
		return nil, apperr.New(apperr.Validation, "неизвестный источник курса: %s", source)
	}

	settings, err := r.CurrencySettings()
	if err != nil {
		return nil, err
	}

	settings.RateSource = source
	settings.UpdateEffectiveRate()
	if err := r.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// SetManualRate сохраняет ручной курс
func (r *TenantRepository) SetManualRate(rate float64) (*ds.CurrencySettings, error) {
	if rate <= 0 {
		return nil, apperr.New(apperr.Validation, "курс должен быть больше нуля")
	}

	settings, err := r.CurrencySettings()
	if err != nil {
		return nil, err
	}

	settings.ManualRate = rate
	settings.UpdateEffectiveRate()
	if err := r.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

// StoreCbuRate сохраняет курс, полученный от ЦБ. Вызывается планировщиком.
func (r *TenantRepository) StoreCbuRate(rate float64, fetchedAt time.Time) (*ds.CurrencySettings, error) {
	settings, err := r.CurrencySettings()
	if err != nil {
		return nil, err
	}

	settings.CbuRate = rate
	settings.CbuLastUpdated = &fetchedAt
	settings.UpdateEffectiveRate()
	if err := r.db.Save(settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}
