package ds

import "strings"

// 1. Таблица компаний (клиентов системы). Хранится в управляющей базе.
// У каждой компании своя локальная база (скидки, планы, настройки)
// и, опционально, удалённая операционная база CRM (только чтение).
type Company struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"type:varchar(120);unique;not null"`
	Subdomain string `gorm:"type:varchar(120);unique;not null;index"`
	// Строка подключения к локальной базе компании (PostgreSQL)
	LocalDBURI string `gorm:"type:varchar(255);not null"`
	// Строка подключения к операционной базе CRM (MySQL). Может отсутствовать,
	// если выгрузка данных для компании ещё не настроена.
	RemoteDBURI *string `gorm:"type:varchar(255)"`

	// Почтовые настройки компании для рассылки уведомлений
	MailServer   string `gorm:"type:varchar(255)"`
	MailPort     int    `gorm:"default:587"`
	MailUseTLS   bool   `gorm:"default:true"`
	MailUsername string `gorm:"type:varchar(255)"`
	MailPassword string `gorm:"type:varchar(255)"`

	// Статусы через запятую: какие сделки считаются продажей
	// и какие объекты считаются остатками
	DealStatuses      string `gorm:"type:text"`
	InventoryStatuses string `gorm:"type:text"`

	Users []User `gorm:"foreignKey:CompanyID"`
}

// HasRemoteStore сообщает, настроена ли у компании операционная база.
func (c *Company) HasRemoteStore() bool {
	return c.RemoteDBURI != nil && *c.RemoteDBURI != ""
}

// DealStatusList возвращает список статусов сделок-продаж.
func (c *Company) DealStatusList() []string {
	return splitStatuses(c.DealStatuses)
}

// InventoryStatusList возвращает список статусов объектов-остатков.
func (c *Company) InventoryStatusList() []string {
	return splitStatuses(c.InventoryStatuses)
}

func splitStatuses(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	statuses := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			statuses = append(statuses, s)
		}
	}
	return statuses
}
