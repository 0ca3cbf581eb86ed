package ds

import "time"

// Модели операционной базы CRM. В неё система никогда не пишет:
// удалённая база подключается в режиме "только чтение по договорённости".

type EstateHouse struct {
	ID          uint   `gorm:"primaryKey"`
	ComplexName string `gorm:"type:varchar(255);index"`
	Name        string `gorm:"type:varchar(255)"`
	GeoHouse    string `gorm:"type:varchar(255)"`
}

func (EstateHouse) TableName() string { return "estate_houses" }

// Предложение о продаже объекта (квартира, паркинг и т.д.)
type EstateSell struct {
	ID                   uint    `gorm:"primaryKey"`
	HouseID              uint    `gorm:"index"`
	EstateSellCategory   string  `gorm:"type:varchar(100)"`
	EstateSellStatusName string  `gorm:"type:varchar(100);index"`
	EstateFloor          int     `gorm:"column:estate_floor"`
	EstateRooms          int     `gorm:"column:estate_rooms"`
	EstatePrice          float64 `gorm:"column:estate_price"`
	EstatePriceM2        float64 `gorm:"column:estate_price_m2"`
	EstateArea           float64 `gorm:"column:estate_area"`

	House *EstateHouse `gorm:"foreignKey:HouseID"`
}

func (EstateSell) TableName() string { return "estate_sells" }

// Сделка по объекту
type EstateDeal struct {
	ID             uint    `gorm:"primaryKey"`
	EstateSellID   uint    `gorm:"index"`
	DealStatusName string  `gorm:"type:varchar(100);index"`
	DealSum        float64 `gorm:"column:deal_sum"`
	DealDate       *time.Time
	ManagerID      *uint `gorm:"column:respons_manager_id"`

	Sell *EstateSell `gorm:"foreignKey:EstateSellID"`
}

func (EstateDeal) TableName() string { return "estate_deals" }
