package ds

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Тип недвижимости. В базе хранится системное имя (FLAT, COMM, ...),
// для отображения используется Display().
type PropertyType string

const (
	PropertyFlat       PropertyType = "FLAT"
	PropertyCommercial PropertyType = "COMM"
	PropertyParking    PropertyType = "GARAGE"
	PropertyStorage    PropertyType = "STORAGEROOM"
)

var propertyTypeDisplay = map[PropertyType]string{
	PropertyFlat:       "Квартира",
	PropertyCommercial: "Коммерческое помещение",
	PropertyParking:    "Парковка",
	PropertyStorage:    "Кладовое помещение",
}

// AllPropertyTypes перечисляет типы в стабильном порядке.
func AllPropertyTypes() []PropertyType {
	return []PropertyType{PropertyFlat, PropertyCommercial, PropertyParking, PropertyStorage}
}

// Display возвращает русское название типа.
func (p PropertyType) Display() string {
	return propertyTypeDisplay[p]
}

// ParsePropertyType принимает и системное имя, и русское название.
// В CRM категории встречаются в обоих вариантах.
func ParsePropertyType(s string) (PropertyType, error) {
	for _, pt := range AllPropertyTypes() {
		if s == string(pt) || s == pt.Display() {
			return pt, nil
		}
	}
	return "", fmt.Errorf("неизвестный тип недвижимости: %q", s)
}

// Способ оплаты
type PaymentMethod string

const (
	FullPayment PaymentMethod = "FULL_PAYMENT"
	Mortgage    PaymentMethod = "MORTGAGE"
)

var paymentMethodDisplay = map[PaymentMethod]string{
	FullPayment: "100% оплата",
	Mortgage:    "Ипотека",
}

func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{FullPayment, Mortgage}
}

func (m PaymentMethod) Display() string {
	return paymentMethodDisplay[m]
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, pm := range AllPaymentMethods() {
		if s == string(pm) || s == pm.Display() {
			return pm, nil
		}
	}
	return "", fmt.Errorf("неизвестный способ оплаты: %q", s)
}

// 3. Версия системы скидок. После активации версия становится
// неизменяемым снимком: редактируются только черновики.
type DiscountVersion struct {
	ID            uint   `gorm:"primaryKey"`
	VersionNumber int    `gorm:"not null;unique"`
	Comment       string `gorm:"type:text"`
	IsActive      bool   `gorm:"default:false;not null"`
	CreatedAt     time.Time
	// Ставится один раз при первой активации и никогда не сбрасывается.
	// Версию с этим флагом удалить нельзя.
	WasEverActivated   bool       `gorm:"default:false;not null"`
	ChangesSummaryJSON string     `gorm:"type:text"`
	SummarySentAt      *time.Time `gorm:"default:null"`

	Discounts       []Discount       `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
	ComplexComments []ComplexComment `gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE"`
}

// Скидка для связки (ЖК, тип недвижимости, способ оплаты) внутри версии.
// Все ставки хранятся в долях [0, 1].
type Discount struct {
	ID            uint          `gorm:"primaryKey"`
	VersionID     uint          `gorm:"not null;index;uniqueIndex:idx_version_complex_prop_payment"`
	ComplexName   string        `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_version_complex_prop_payment"`
	PropertyType  PropertyType  `gorm:"type:varchar(100);not null;uniqueIndex:idx_version_complex_prop_payment"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(100);not null;uniqueIndex:idx_version_complex_prop_payment"`

	Mpp         float64 `gorm:"default:0"`
	Rop         float64 `gorm:"default:0"`
	Kd          float64 `gorm:"default:0"`
	Opt         float64 `gorm:"default:0"`
	Gd          float64 `gorm:"default:0"`
	Holding     float64 `gorm:"default:0"`
	Shareholder float64 `gorm:"default:0"`
	Action      float64 `gorm:"default:0"`

	// Дата кадастра ограничивает срок стандартной рассрочки
	CadastreDate *time.Time `gorm:"type:date"`

	Version *DiscountVersion `gorm:"foreignKey:VersionID"`
}

// DiscountRateFields перечисляет имена процентных полей в порядке,
// в котором они выводятся в отчётах и письмах.
var DiscountRateFields = []string{"mpp", "rop", "kd", "opt", "gd", "holding", "shareholder", "action"}

// RateEpsilon — порог неразличимости ставок. Разница меньше порога
// не считается изменением ни при сохранении, ни при сравнении версий.
const RateEpsilon = 1e-9

// Rate возвращает значение процентного поля по его системному имени.
func (d *Discount) Rate(field string) float64 {
	switch field {
	case "mpp":
		return d.Mpp
	case "rop":
		return d.Rop
	case "kd":
		return d.Kd
	case "opt":
		return d.Opt
	case "gd":
		return d.Gd
	case "holding":
		return d.Holding
	case "shareholder":
		return d.Shareholder
	case "action":
		return d.Action
	}
	return 0
}

// SetRate записывает значение процентного поля по его системному имени.
func (d *Discount) SetRate(field string, value float64) {
	switch field {
	case "mpp":
		d.Mpp = value
	case "rop":
		d.Rop = value
	case "kd":
		d.Kd = value
	case "opt":
		d.Opt = value
	case "gd":
		d.Gd = value
	case "holding":
		d.Holding = value
	case "shareholder":
		d.Shareholder = value
	case "action":
		d.Action = value
	}
}

// Комментарий к ЖК внутри версии, попадает в письмо об активации
type ComplexComment struct {
	ID          uint   `gorm:"primaryKey"`
	VersionID   uint   `gorm:"not null;uniqueIndex:idx_version_complex"`
	ComplexName string `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_version_complex"`
	Comment     string `gorm:"type:text"`

	Version *DiscountVersion `gorm:"foreignKey:VersionID"`
}

// 4. План продаж по ЖК на месяц
type SalesPlan struct {
	ID           uint    `gorm:"primaryKey"`
	ComplexName  string  `gorm:"type:varchar(255);not null;index;uniqueIndex:idx_plan_period_complex_prop"`
	PropertyType string  `gorm:"type:varchar(100);not null;uniqueIndex:idx_plan_period_complex_prop"`
	Year         int     `gorm:"not null;uniqueIndex:idx_plan_period_complex_prop"`
	Month        int     `gorm:"not null;uniqueIndex:idx_plan_period_complex_prop"`
	PlanUnits    int     `gorm:"not null;default:0"`
	PlanVolume   float64 `gorm:"not null;default:0"`
	PlanIncome   float64 `gorm:"not null;default:0"`
}

// Настройки калькуляторов рассрочки. Единственная запись в локальной базе,
// загружается через репозиторий с созданием по умолчанию.
type CalculatorSettings struct {
	ID uint `gorm:"primaryKey"`
	// Белые списки ID объектов через запятую
	StandardInstallmentWhitelist string  `gorm:"type:text"`
	DpInstallmentWhitelist       string  `gorm:"type:text"`
	DpInstallmentMaxTerm         int     `gorm:"default:6"`
	TimeValueRateAnnual          float64 `gorm:"default:16.5"`
	StandardInstallmentMinDp     float64 `gorm:"default:15.0"`
}

// StandardWhitelist возвращает ID объектов, доступных для стандартной рассрочки.
func (s *CalculatorSettings) StandardWhitelist() []uint {
	return parseIDList(s.StandardInstallmentWhitelist)
}

// DpWhitelist возвращает ID объектов, доступных для рассрочки на ПВ.
func (s *CalculatorSettings) DpWhitelist() []uint {
	return parseIDList(s.DpInstallmentWhitelist)
}

func parseIDList(raw string) []uint {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}
