package repository

import (
	"errors"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"gorm.io/gorm"
)

func (r *Repository) UserByID(id uint) (*ds.User, error) {
	var user ds.User
	err := r.db.
		Preload("Role.Permissions").
		Preload("Company").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "пользователь не найден")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UserByUsername(username string) (*ds.User, error) {
	var user ds.User
	err := r.db.
		Preload("Role.Permissions").
		Preload("Company").
		Where("username = ?", username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "пользователь не найден")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UserExistsByUsername(username string) (bool, error) {
	var count int64
	err := r.db.Model(&ds.User{}).Where("username = ?", username).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateUser(user *ds.User) error {
	return r.db.Create(user).Error
}

func (r *Repository) CompanyUsers(companyID uint) ([]ds.User, error) {
	var users []ds.User
	err := r.db.
		Preload("Role").
		Where("company_id = ?", companyID).
		Order("id").
		Find(&users).Error
	return users, err
}

func (r *Repository) RoleByName(name string) (*ds.Role, error) {
	var roleRow ds.Role
	err := r.db.Preload("Permissions").Where("name = ?", name).First(&roleRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.New(apperr.NotFound, "роль не найдена")
	}
	if err != nil {
		return nil, err
	}
	return &roleRow, nil
}

// PermissionNames собирает имена прав пользователя для JWT
func PermissionNames(user *ds.User) []string {
	if user.Role == nil {
		return nil
	}
	names := make([]string, 0, len(user.Role.Permissions))
	for _, p := range user.Role.Permissions {
		names = append(names, p.Name)
	}
	return names
}
