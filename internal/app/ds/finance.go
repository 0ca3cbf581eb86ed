package ds

import "time"

// Источники курса USD/UZS
const (
	RateSourceCBU    = "cbu"
	RateSourceManual = "manual"
)

// Настройки курса валюты. Единственная запись в локальной базе компании.
// EffectiveRate — производное поле: всегда равно курсу выбранного источника.
type CurrencySettings struct {
	ID             uint    `gorm:"primaryKey"`
	RateSource     string  `gorm:"type:varchar(10);default:'cbu';not null"`
	CbuRate        float64 `gorm:"default:0"`
	ManualRate     float64 `gorm:"default:0"`
	EffectiveRate  float64 `gorm:"default:0"`
	CbuLastUpdated *time.Time
}

// UpdateEffectiveRate синхронизирует производный курс с источником.
// Вызывается каждым мутатором настроек.
func (s *CurrencySettings) UpdateEffectiveRate() {
	if s.RateSource == RateSourceCBU {
		s.EffectiveRate = s.CbuRate
	} else {
		s.EffectiveRate = s.ManualRate
	}
}

// Финансовая операция из операционной базы CRM (только чтение)
type FinanceOperation struct {
	ID           uint    `gorm:"primaryKey"`
	EstateSellID uint    `gorm:"column:estate_sell_id;not null"`
	Summa        float64 `gorm:"column:summa"`
	StatusName   string  `gorm:"column:status_name;type:varchar(100)"`
	PaymentType  string  `gorm:"column:types_name;type:varchar(100)"`
	DateAdded    *time.Time
	DateTo       *time.Time
	ManagerID    *uint `gorm:"column:respons_manager_id"`

	Sell *EstateSell `gorm:"foreignKey:EstateSellID"`
}

func (FinanceOperation) TableName() string { return "finances" }
