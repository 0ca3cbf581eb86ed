package repository

import (
	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TenantStores — пара соединений компании на один запрос.
// Local — локальная база (чтение и запись), Remote — операционная база CRM
// (только чтение). Remote равен nil, если выгрузка не настроена:
// вызывающий код обязан деградировать до пустых результатов.
type TenantStores struct {
	Local  *gorm.DB
	Remote *gorm.DB
}

// StoreOpener открывает пару соединений для компании.
// Выделен в тип ради подмены в тестах.
type StoreOpener func(company *ds.Company) (*TenantStores, error)

// OpenStores открывает соединения по строкам подключения компании.
// Недоступность локальной базы фатальна для запроса, недоступность
// удалённой при настроенной выгрузке — тоже: молчаливо работать
// со старыми данными хуже, чем вернуть ошибку.
func OpenStores(company *ds.Company) (*TenantStores, error) {
	local, err := OpenLocalStore(company.LocalDBURI)
	if err != nil {
		return nil, apperr.Wrap(apperr.Infrastructure, err, "локальная база компании недоступна")
	}

	stores := &TenantStores{Local: local}

	if company.HasRemoteStore() {
		remote, err := gorm.Open(mysql.Open(*company.RemoteDBURI), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			stores.Close()
			return nil, apperr.Wrap(apperr.Infrastructure, err, "операционная база компании недоступна")
		}
		stores.Remote = remote
	}

	return stores, nil
}

func OpenLocalStore(uri string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(uri), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

// MigrateLocalStore накатывает схему локальной базы компании.
// Вызывается при создании компании и из cmd/migrate.
func MigrateLocalStore(db *gorm.DB) error {
	return db.AutoMigrate(
		&ds.DiscountVersion{},
		&ds.Discount{},
		&ds.ComplexComment{},
		&ds.SalesPlan{},
		&ds.CalculatorSettings{},
		&ds.CurrencySettings{},
		&ds.ExcludedSell{},
		&ds.ExcludedComplex{},
	)
}

// Close закрывает оба соединения. Вызывается безусловно по завершении
// запроса, в том числе при панике в обработчике.
func (s *TenantStores) Close() {
	if s == nil {
		return
	}
	closeDB(s.Local)
	closeDB(s.Remote)
	s.Local = nil
	s.Remote = nil
}

func closeDB(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Error("cant get sql.DB for close: ", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error("cant close tenant store: ", err)
	}
}
