package dto

import "time"

// ============ Общие структуры ============

type ErrorResponse struct {
	Status      string `json:"status"`
	Description string `json:"description"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============ Аутентификация ============

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	FullName    string `json:"full_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password" binding:"required,min=6"`
	RoleID      *uint  `json:"role_id"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserResponse struct {
	ID          uint     `json:"id"`
	Username    string   `json:"username"`
	FullName    string   `json:"full_name"`
	Email       string   `json:"email"`
	CompanyID   uint     `json:"company_id"`
	Role        string   `json:"role,omitempty"`
	Permissions []string `json:"permissions"`
}

// ============ Версии скидок ============

type CreateVersionRequest struct {
	Comment string `json:"comment"`
	// ID активной версии для клонирования; пустой черновик, если не задан
	CloneFromActive bool `json:"clone_from_active"`
}

type VersionResponse struct {
	ID               uint       `json:"id"`
	VersionNumber    int        `json:"version_number"`
	Comment          string     `json:"comment"`
	IsActive         bool       `json:"is_active"`
	WasEverActivated bool       `json:"was_ever_activated"`
	CreatedAt        time.Time  `json:"created_at"`
	SummarySentAt    *time.Time `json:"summary_sent_at,omitempty"`
	DiscountCount    int        `json:"discount_count"`
}

type DiscountResponse struct {
	ID            uint     `json:"id"`
	ComplexName   string   `json:"complex_name"`
	PropertyType  string   `json:"property_type"`
	PaymentMethod string   `json:"payment_method"`
	Mpp           float64  `json:"mpp"`
	Rop           float64  `json:"rop"`
	Kd            float64  `json:"kd"`
	Opt           float64  `json:"opt"`
	Gd            float64  `json:"gd"`
	Holding       float64  `json:"holding"`
	Shareholder   float64  `json:"shareholder"`
	Action        float64  `json:"action"`
	CadastreDate  *string  `json:"cadastre_date,omitempty"`
}

// Одно изменение поля скидки: ключ строки плюс имя поля и новое значение
type DiscountFieldUpdate struct {
	ComplexName   string  `json:"complex_name" binding:"required"`
	PropertyType  string  `json:"property_type" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Field         string  `json:"field" binding:"required"`
	Value         float64 `json:"value"`
}

type UpdateDiscountsRequest struct {
	Updates       []DiscountFieldUpdate `json:"updates" binding:"required"`
	ChangeSummary string                `json:"change_summary"`
}

type ActivateVersionRequest struct {
	Comment string `json:"comment"`
}

type ComplexCommentRequest struct {
	ComplexName string `json:"complex_name" binding:"required"`
	Comment     string `json:"comment"`
}

// ============ Подбор и расчёт цены ============

type QuoteRequest struct {
	SellID        uint    `json:"sell_id" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	// Дополнительные скидки сверх базовых ставок активной версии
	ExtraKd          float64 `json:"extra_kd"`
	ExtraOpt         float64 `json:"extra_opt"`
	ExtraGd          float64 `json:"extra_gd"`
	ExtraHolding     float64 `json:"extra_holding"`
	ExtraShareholder float64 `json:"extra_shareholder"`
	// Параметры ипотеки
	DownPayment float64 `json:"down_payment"`
}

type QuoteResponse struct {
	SellID         uint    `json:"sell_id"`
	ComplexName    string  `json:"complex_name"`
	PropertyType   string  `json:"property_type"`
	PaymentMethod  string  `json:"payment_method"`
	ListPrice      float64 `json:"list_price"`
	Deduction      float64 `json:"deduction"`
	TotalRate      float64 `json:"total_rate"`
	FinalPrice     float64 `json:"final_price"`
	MortgageBody   float64 `json:"mortgage_body,omitempty"`
	DownPayment    float64 `json:"down_payment,omitempty"`
	VersionNumber  int     `json:"version_number"`
}

type BudgetSearchRequest struct {
	Budget        float64  `json:"budget" binding:"required,gt=0"`
	PaymentMethod string   `json:"payment_method" binding:"required"`
	Complexes     []string `json:"complexes"`
	PropertyType  string   `json:"property_type"`
	RoomsMin      int      `json:"rooms_min"`
	RoomsMax      int      `json:"rooms_max"`
	AreaMin       float64  `json:"area_min"`
	AreaMax       float64  `json:"area_max"`
	FloorMin      int      `json:"floor_min"`
	FloorMax      int      `json:"floor_max"`
}

type ApartmentOption struct {
	SellID      uint    `json:"sell_id"`
	ComplexName string  `json:"complex_name"`
	House       string  `json:"house"`
	Floor       int     `json:"floor"`
	Rooms       int     `json:"rooms"`
	Area        float64 `json:"area"`
	ListPrice   float64 `json:"list_price"`
	BottomPrice float64 `json:"bottom_price"`
	PricePerM2  float64 `json:"price_per_m2"`
}

type BudgetSearchResponse struct {
	Options []ApartmentOption `json:"options"`
	Total   int               `json:"total"`
}

// Карточка объекта: цены по всем способам оплаты
type ApartmentCardResponse struct {
	SellID      uint              `json:"sell_id"`
	ComplexName string            `json:"complex_name"`
	House       string            `json:"house"`
	Floor       int               `json:"floor"`
	Rooms       int               `json:"rooms"`
	Area        float64           `json:"area"`
	ListPrice   float64           `json:"list_price"`
	Status      string            `json:"status"`
	PaidAmount  float64           `json:"paid_amount"`
	Options     []PaymentOption   `json:"options"`
	Comment     string            `json:"comment,omitempty"`
}

type PaymentOption struct {
	PaymentMethod string  `json:"payment_method"`
	Display       string  `json:"display"`
	FinalPrice    float64 `json:"final_price"`
	TotalRate     float64 `json:"total_rate"`
}

// ============ Рассрочка ============

type InstallmentRequest struct {
	SellID      uint    `json:"sell_id" binding:"required"`
	DownPayment float64 `json:"down_payment" binding:"required,gt=0"`
	TermMonths  int     `json:"term_months" binding:"required,gt=0"`
	// Дополнительные скидки сверх базовых ставок активной версии
	ExtraKd          float64 `json:"extra_kd"`
	ExtraOpt         float64 `json:"extra_opt"`
	ExtraGd          float64 `json:"extra_gd"`
	ExtraHolding     float64 `json:"extra_holding"`
	ExtraShareholder float64 `json:"extra_shareholder"`
}

type InstallmentScheduleRow struct {
	Month   int     `json:"month"`
	Payment float64 `json:"payment"`
	Balance float64 `json:"balance"`
}

type InstallmentResponse struct {
	SellID          uint                     `json:"sell_id"`
	ContractValue   float64                  `json:"contract_value"`
	DownPayment     float64                  `json:"down_payment"`
	TermMonths      int                      `json:"term_months"`
	MonthlyPayment  float64                  `json:"monthly_payment"`
	DiscountPercent float64                  `json:"discount_percent"`
	Schedule        []InstallmentScheduleRow `json:"schedule"`
}

// ============ Курс валюты ============

type CurrencySettingsResponse struct {
	RateSource     string     `json:"rate_source"`
	CbuRate        float64    `json:"cbu_rate"`
	ManualRate     float64    `json:"manual_rate"`
	EffectiveRate  float64    `json:"effective_rate"`
	CbuLastUpdated *time.Time `json:"cbu_last_updated,omitempty"`
}

type SetRateSourceRequest struct {
	Source string `json:"source" binding:"required,oneof=cbu manual"`
}

type SetManualRateRequest struct {
	Rate float64 `json:"rate" binding:"required,gt=0"`
}

// ============ Отчёт по остаткам ============

type InventoryRow struct {
	ComplexName  string  `json:"complex_name"`
	PropertyType string  `json:"property_type"`
	Units        int     `json:"units"`
	TotalArea    float64 `json:"total_area"`
	TotalValue   float64 `json:"total_value"`
	AvgPriceM2   float64 `json:"avg_price_m2"`
}

type InventoryReportResponse struct {
	Rows        []InventoryRow `json:"rows"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// ============ Настройки калькуляторов ============

type CalculatorSettingsResponse struct {
	StandardInstallmentWhitelist []uint  `json:"standard_installment_whitelist"`
	DpInstallmentWhitelist       []uint  `json:"dp_installment_whitelist"`
	DpInstallmentMaxTerm         int     `json:"dp_installment_max_term"`
	TimeValueRateAnnual          float64 `json:"time_value_rate_annual"`
	StandardInstallmentMinDp     float64 `json:"standard_installment_min_dp"`
}

type UpdateCalculatorSettingsRequest struct {
	StandardInstallmentWhitelist []uint   `json:"standard_installment_whitelist"`
	DpInstallmentWhitelist       []uint   `json:"dp_installment_whitelist"`
	DpInstallmentMaxTerm         *int     `json:"dp_installment_max_term"`
	TimeValueRateAnnual          *float64 `json:"time_value_rate_annual"`
	StandardInstallmentMinDp     *float64 `json:"standard_installment_min_dp"`
}

// ============ Исключения ============

type ExcludeSellRequest struct {
	SellID  uint   `json:"sell_id" binding:"required"`
	Comment string `json:"comment"`
}

type ExcludeComplexRequest struct {
	ComplexName string `json:"complex_name" binding:"required"`
}

// ============ Администрирование компаний ============

type ProvisionCompanyRequest struct {
	Name              string  `json:"name" binding:"required"`
	Subdomain         string  `json:"subdomain" binding:"required"`
	LocalDBURI        string  `json:"local_db_uri" binding:"required"`
	RemoteDBURI       *string `json:"remote_db_uri"`
	MailServer        string  `json:"mail_server"`
	MailPort          int     `json:"mail_port"`
	MailUseTLS        bool    `json:"mail_use_tls"`
	MailUsername      string  `json:"mail_username"`
	MailPassword      string  `json:"mail_password"`
	DealStatuses      string  `json:"deal_statuses"`
	InventoryStatuses string  `json:"inventory_statuses"`
	// Администратор, создаваемый вместе с компанией
	AdminUsername string `json:"admin_username" binding:"required"`
	AdminEmail    string `json:"admin_email" binding:"required,email"`
	AdminPassword string `json:"admin_password" binding:"required,min=6"`
}

type CompanyResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	HasRemoteStore bool   `json:"has_remote_store"`
}
