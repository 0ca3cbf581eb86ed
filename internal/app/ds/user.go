package ds

// 2. Таблица пользователей. Каждый пользователь принадлежит ровно одной компании.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:varchar(64);unique;not null;index"`
	FullName     string `gorm:"type:varchar(120);not null"`
	Email        string `gorm:"type:varchar(120);unique;not null;index"`
	PhoneNumber  string `gorm:"type:varchar(20)"`
	PasswordHash string `gorm:"type:varchar(256)"`
	RoleID       *uint
	// Компания обязательна: пользователь без компании не проходит авторизацию
	CompanyID uint `gorm:"not null"`

	Role    *Role    `gorm:"foreignKey:RoleID"`
	Company *Company `gorm:"foreignKey:CompanyID"`
}

// Can проверяет, есть ли у пользователя именованное право.
func (u *User) Can(permissionName string) bool {
	if u.Role == nil {
		return false
	}
	for _, p := range u.Role.Permissions {
		if p.Name == permissionName {
			return true
		}
	}
	return false
}

// Роль с набором именованных прав (многие-ко-многим)
type Role struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(80);unique;not null"`

	Users       []User       `gorm:"foreignKey:RoleID"`
	Permissions []Permission `gorm:"many2many:role_permissions"`
}

type Permission struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(120);unique;not null"`
	Description string `gorm:"type:varchar(255)"`

	Roles []Role `gorm:"many2many:role_permissions"`
}

// Получатель email-уведомлений об активации версий скидок
type EmailRecipient struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"not null;unique"`

	User User `gorm:"foreignKey:UserID"`
}
