package ds

import "time"

// Объект, исключённый из подбора (например, служебный резерв)
type ExcludedSell struct {
	ID        uint   `gorm:"primaryKey"`
	SellID    uint   `gorm:"not null;unique;index"`
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
}

// ЖК, исключённый из сводки по остаткам
type ExcludedComplex struct {
	ID          uint   `gorm:"primaryKey"`
	ComplexName string `gorm:"type:varchar(255);not null;unique"`
}
