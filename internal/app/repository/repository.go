package repository

import (
	"errors"
	"fmt"

	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/role"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Repository работает с управляющей базой: компании, пользователи,
// роли, получатели рассылки. Данные компаний живут в их собственных
// базах и открываются брокером соединений на каждый запрос.
type Repository struct {
	db *gorm.DB
}

func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	return NewWithDB(db)
}

// NewWithDB оборачивает готовое соединение. Используется в тестах.
func NewWithDB(db *gorm.DB) (*Repository, error) {
	// Автоматическая миграция таблиц управляющей базы
	err := db.AutoMigrate(
		&ds.Company{},
		&ds.User{},
		&ds.Role{},
		&ds.Permission{},
		&ds.EmailRecipient{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate control database: %w", err)
	}

	r := &Repository{db: db}
	if err := r.ensurePermissions(); err != nil {
		return nil, err
	}

	return r, nil
}

// ensurePermissions создаёт справочник прав из фиксированного набора
func (r *Repository) ensurePermissions() error {
	for name, description := range role.Descriptions {
		var p ds.Permission
		err := r.db.Where("name = ?", name).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = r.db.Create(&ds.Permission{Name: name, Description: description}).Error
		}
		if err != nil {
			return fmt.Errorf("failed to ensure permission %s: %w", name, err)
		}
	}
	return nil
}
