package repository

import (
	"errors"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
	"apartment-finder/internal/app/role"

	"gorm.io/gorm"
)

func (r *Repository) CompanyByID(id uint) (*ds.Company, error) {
	var company ds.Company
	err := r.db.First(&company, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "компания не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) CompanyBySubdomain(subdomain string) (*ds.Company, error) {
	var company ds.Company
	err := r.db.Where("subdomain = ?", subdomain).First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "компания не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *Repository) Companies() ([]ds.Company, error) {
	var companies []ds.Company
	err := r.db.Order("id").Find(&companies).Error
	return companies, err
}

// ProvisionCompany создаёт компанию, мигрирует схему её локальной базы
// и заводит стартовые роли с администратором. Регистрация в управляющей
// базе выполняется одной транзакцией; миграция локальной базы идёт до неё,
// чтобы не записать компанию с неработающей базой.
func (r *Repository) ProvisionCompany(company *ds.Company, adminUsername, adminEmail, adminPasswordHash string) (*ds.Company, error) {
	var exists ds.Company
	err := r.db.Where("subdomain = ?", company.Subdomain).First(&exists).Error
	if err == nil {
		return nil, apperr.New(apperr.Validation, "компания с поддоменом %s уже существует", company.Subdomain)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Проверяем локальную базу и накатываем схему
	local, err := OpenLocalStore(company.LocalDBURI)
	if err != nil {
		return nil, apperr.Wrap(apperr.Infrastructure, err, "локальная база компании недоступна")
	}
	defer closeDB(local)

	if err := MigrateLocalStore(local); err != nil {
		return nil, apperr.Wrap(apperr.Infrastructure, err, "не удалось мигрировать локальную базу компании")
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return err
		}

		adminRole, err := ensureRoleTx(tx, "ADMIN", role.DefaultRoles["ADMIN"])
		if err != nil {
			return err
		}
		for _, name := range []string{"MPP", "MANAGER"} {
			if _, err := ensureRoleTx(tx, name, role.DefaultRoles[name]); err != nil {
				return err
			}
		}

		admin := ds.User{
			Username:     adminUsername,
			FullName:     adminUsername,
			Email:        adminEmail,
			PasswordHash: adminPasswordHash,
			RoleID:       &adminRole.ID,
			CompanyID:    company.ID,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		return nil, err
	}

	return company, nil
}

// BootstrapSuperAdmin заводит стартовую компанию и суперадминистратора.
// Повторный запуск ничего не меняет: пользователь ищется по имени.
func (r *Repository) BootstrapSuperAdmin(company *ds.Company, username, email, passwordHash string) error {
	exists, err := r.UserExistsByUsername(username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	existing, err := r.CompanyBySubdomain(company.Subdomain)
	switch {
	case err == nil:
		company = existing
	case apperr.Is(err, apperr.NotFound):
		local, err := OpenLocalStore(company.LocalDBURI)
		if err != nil {
			return apperr.Wrap(apperr.Infrastructure, err, "локальная база компании недоступна")
		}
		defer closeDB(local)
		if err := MigrateLocalStore(local); err != nil {
			return apperr.Wrap(apperr.Infrastructure, err, "не удалось мигрировать локальную базу компании")
		}
		if err := r.db.Create(company).Error; err != nil {
			return err
		}
	default:
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		superRole, err := ensureRoleTx(tx, "SUPER_ADMIN", role.DefaultRoles["SUPER_ADMIN"])
		if err != nil {
			return err
		}
		admin := ds.User{
			Username:     username,
			FullName:     username,
			Email:        email,
			PasswordHash: passwordHash,
			RoleID:       &superRole.ID,
			CompanyID:    company.ID,
		}
		return tx.Create(&admin).Error
	})
}

func ensureRoleTx(tx *gorm.DB, name string, permissionNames []string) (*ds.Role, error) {
	var existing ds.Role
	err := tx.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var permissions []ds.Permission
	if err := tx.Where("name IN ?", permissionNames).Find(&permissions).Error; err != nil {
		return nil, err
	}

	newRole := ds.Role{Name: name, Permissions: permissions}
	if err := tx.Create(&newRole).Error; err != nil {
		return nil, err
	}
	return &newRole, nil
}

// Recipients возвращает получателей писем об активации версий
// в пределах компании.
func (r *Repository) Recipients(companyID uint) ([]ds.User, error) {
	var users []ds.User
	err := r.db.
		Joins("JOIN email_recipients ON email_recipients.user_id = users.id").
		Where("users.company_id = ?", companyID).
		Find(&users).Error
	return users, err
}

func (r *Repository) AddRecipient(userID uint) error {
	var existing ds.EmailRecipient
	err := r.db.Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&ds.EmailRecipient{UserID: userID}).Error
}

func (r *Repository) RemoveRecipient(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&ds.EmailRecipient{}).Error
}
