package role

// Именованные права доступа. Роли собираются из этих прав
// администратором, имена фиксированы.
const (
	ViewSelection      = "view_selection"
	ViewDiscounts      = "view_discounts"
	ViewVersionHistory = "view_version_history"
	ViewInventory      = "view_inventory_report"
	ViewPlanFact       = "view_plan_fact_report"
	ManageDiscounts    = "manage_discounts"
	ManageSettings     = "manage_settings"
	ManageUsers        = "manage_users"
	UploadData         = "upload_data"
	// Создание компаний, доступно только суперадминистратору системы
	ManageCompanies = "manage_companies"
)

// Описания прав для справочника в управляющей базе
var Descriptions = map[string]string{
	ViewSelection:      "Просмотр системы подбора",
	ViewDiscounts:      "Просмотр активной системы скидок",
	ViewVersionHistory: "Просмотр истории версий скидок",
	ViewInventory:      "Просмотр отчета по остаткам",
	ViewPlanFact:       "Просмотр План-факт отчета",
	ManageDiscounts:    "Управление версиями скидок (создание, активация)",
	ManageSettings:     "Управление настройками (калькуляторы, курс)",
	ManageUsers:        "Управление пользователями",
	UploadData:         "Загрузка данных (планы и т.д.)",
	ManageCompanies:    "Создание и настройка компаний",
}

// Наборы прав для стартовых ролей
var DefaultRoles = map[string][]string{
	"MPP":     {ViewSelection, ViewDiscounts},
	"MANAGER": {ViewSelection, ViewDiscounts, ViewVersionHistory, ManageSettings, ViewInventory, ViewPlanFact},
	"ADMIN": {ViewSelection, ViewDiscounts, ViewVersionHistory, ManageDiscounts,
		ManageSettings, ManageUsers, UploadData, ViewInventory, ViewPlanFact},
	"SUPER_ADMIN": {ViewSelection, ViewDiscounts, ViewVersionHistory, ManageDiscounts,
		ManageSettings, ManageUsers, UploadData, ViewInventory, ViewPlanFact, ManageCompanies},
}
