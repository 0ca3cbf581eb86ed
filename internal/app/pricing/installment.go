package pricing

import (
	"math"
	"time"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"
)

// Pmt возвращает аннуитетный ежемесячный платёж для тела pv
// под месячную ставку rate на nper месяцев.
func Pmt(rate float64, nper int, pv float64) float64 {
	if nper <= 0 {
		return 0
	}
	if rate == 0 {
		return pv / float64(nper)
	}
	factor := math.Pow(1+rate, float64(nper))
	return pv * rate * factor / (factor - 1)
}

// containsID сообщает о вхождении ID в белый список
func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// monthsUntil считает полные месяцы от from до to
func monthsUntil(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// ScheduleRow — строка графика платежей
type ScheduleRow struct {
	Month   int       `json:"month"`
	Date    time.Time `json:"date"`
	Amount  float64   `json:"amount"`
	RowType string    `json:"type"`
}

// InstallmentResult — итог расчёта рассрочки
type InstallmentResult struct {
	ListPrice       float64
	DownPayment     float64
	DiscountPercent float64
	ContractValue   float64
	MonthlyPayment  float64
	TermMonths      int
	MortgageBody    float64
	Schedule        []ScheduleRow
}

// StandardInstallmentInput — запрос стандартной рассрочки
type StandardInstallmentInput struct {
	SellID       uint
	ListPrice    float64
	Discount     *ds.Discount // скидка связки со 100% оплатой
	Extra        map[string]float64
	DownPayment  float64
	TermMonths   int
	StartDate    time.Time
	Today        time.Time
}

// CalculateInstallmentPlan считает стандартную рассрочку. Объект должен
// быть в белом списке, срок ограничен датой кадастра. Итоговая скидка
// округляется вниз до целого процента, после чего договорная стоимость
// и платёж пересчитываются от округлённой скидки.
func CalculateInstallmentPlan(settings *ds.CalculatorSettings, input StandardInstallmentInput) (*InstallmentResult, error) {
	if !containsID(settings.StandardWhitelist(), input.SellID) {
		return nil, apperr.New(apperr.Validation, "этот вид рассрочки недоступен для данного объекта")
	}
	if input.TermMonths <= 0 {
		return nil, apperr.New(apperr.Validation, "срок рассрочки должен быть больше нуля")
	}
	if input.Discount == nil {
		return nil, apperr.New(apperr.Domain, "скидки для 100%% оплаты не найдены для этого объекта")
	}

	// Срок гасится до даты кадастра
	if input.Discount.CadastreDate == nil {
		return nil, apperr.New(apperr.Validation, "невозможно рассчитать рассрочку: не указана дата кадастра")
	}
	monthsToCadastre := monthsUntil(input.Today, *input.Discount.CadastreDate)
	if input.TermMonths > monthsToCadastre {
		return nil, apperr.New(apperr.Validation,
			"срок рассрочки не может превышать %d мес. (до кадастра)", monthsToCadastre)
	}

	priceForCalc := input.ListPrice - DeductionAmount
	if priceForCalc <= 0 {
		return nil, apperr.New(apperr.Validation, "базовая цена для расчета должна быть положительной")
	}

	minDP := priceForCalc * settings.StandardInstallmentMinDp / 100
	if input.DownPayment < minDP {
		return nil, apperr.New(apperr.Validation,
			"первоначальный взнос не может быть меньше %.0f%% (%.0f UZS)",
			settings.StandardInstallmentMinDp, minDP)
	}

	totalRate := BaseRate(input.Discount)
	extraRate, err := validateExtra(input.Discount, input.Extra)
	if err != nil {
		return nil, err
	}
	totalRate += extraRate

	priceAfterDiscounts := priceForCalc * (1 - totalRate)
	remaining := priceAfterDiscounts - input.DownPayment
	if remaining <= 0 {
		return nil, apperr.New(apperr.Validation,
			"первоначальный взнос равен или превышает стоимость после скидок")
	}

	monthlyRate := settings.TimeValueRateAnnual / 12 / 100
	monthlyTheoretical := Pmt(monthlyRate, input.TermMonths, remaining)
	contractTheoretical := monthlyTheoretical*float64(input.TermMonths) + input.DownPayment
	discountTheoretical := (1 - contractTheoretical/priceForCalc) * 100

	// Округление скидки вниз до целого процента
	finalDiscountPercent := math.Floor(discountTheoretical)
	finalContractValue := priceForCalc * (1 - finalDiscountPercent/100)
	finalMonthly := (finalContractValue - input.DownPayment) / float64(input.TermMonths)

	schedule := make([]ScheduleRow, 0, input.TermMonths+1)
	schedule = append(schedule, ScheduleRow{
		Month: 0, Date: input.StartDate, Amount: input.DownPayment, RowType: "initial_payment",
	})
	for i := 1; i <= input.TermMonths; i++ {
		schedule = append(schedule, ScheduleRow{
			Month:   i,
			Date:    input.StartDate.AddDate(0, i, 0),
			Amount:  finalMonthly,
			RowType: "monthly_payment",
		})
	}

	return &InstallmentResult{
		ListPrice:       input.ListPrice,
		DownPayment:     input.DownPayment,
		DiscountPercent: finalDiscountPercent,
		ContractValue:   finalContractValue,
		MonthlyPayment:  finalMonthly,
		TermMonths:      input.TermMonths,
		Schedule:        schedule,
	}, nil
}

// DownPaymentInstallmentInput — запрос рассрочки на первоначальный взнос
type DownPaymentInstallmentInput struct {
	SellID      uint
	ListPrice   float64
	Discount    *ds.Discount // скидка ипотечной связки
	Extra       map[string]float64
	DownPayment float64
	TermMonths  int
	StartDate   time.Time
}

// CalculateDownPaymentInstallment считает рассрочку на ПВ при ипотеке:
// взнос разбивается на платежи, тело ипотеки платится последним.
// Тело сверх потолка отклоняется с указанием необходимой доплаты.
func CalculateDownPaymentInstallment(settings *ds.CalculatorSettings, input DownPaymentInstallmentInput) (*InstallmentResult, error) {
	if !containsID(settings.DpWhitelist(), input.SellID) {
		return nil, apperr.New(apperr.Validation, "этот вид оплаты недоступен для данного объекта")
	}
	if input.TermMonths < 1 || input.TermMonths > settings.DpInstallmentMaxTerm {
		return nil, apperr.New(apperr.Validation,
			"срок рассрочки на ПВ должен быть от 1 до %d месяцев", settings.DpInstallmentMaxTerm)
	}
	if input.Discount == nil {
		return nil, apperr.New(apperr.Domain, "скидки для ипотеки не найдены для этого объекта")
	}

	priceForCalc := input.ListPrice - DeductionAmount
	if priceForCalc <= 0 {
		return nil, apperr.New(apperr.Validation, "базовая цена для расчета должна быть положительной")
	}

	totalRate := BaseRate(input.Discount)
	extraRate, err := validateExtra(input.Discount, input.Extra)
	if err != nil {
		return nil, err
	}
	totalRate += extraRate

	priceAfterDiscounts := priceForCalc * (1 - totalRate)

	minDP := priceAfterDiscounts * MinInitialPaymentPercent
	if input.DownPayment < minDP {
		return nil, apperr.New(apperr.Validation,
			"первоначальный взнос не может быть меньше %.0f%% (%.0f UZS)",
			MinInitialPaymentPercent*100, minDP)
	}

	mortgageBody := priceAfterDiscounts - input.DownPayment
	if mortgageBody > MaxMortgageBody {
		needed := mortgageBody - MaxMortgageBody
		return nil, apperr.New(apperr.Validation,
			"тело ипотеки превышает лимит, увеличьте ПВ на %.0f UZS", needed)
	}

	monthlyRate := settings.TimeValueRateAnnual / 12 / 100
	dpMonthlyTheoretical := Pmt(monthlyRate, input.TermMonths, input.DownPayment)
	contractTheoretical := dpMonthlyTheoretical*float64(input.TermMonths) + mortgageBody
	discountTheoretical := (1 - contractTheoretical/priceForCalc) * 100

	finalDiscountPercent := math.Floor(discountTheoretical)
	finalContractValue := priceForCalc * (1 - finalDiscountPercent/100)
	finalDPValue := finalContractValue - mortgageBody
	finalMonthly := finalDPValue / float64(input.TermMonths)

	schedule := make([]ScheduleRow, 0, input.TermMonths+1)
	for i := 1; i <= input.TermMonths; i++ {
		schedule = append(schedule, ScheduleRow{
			Month:   i,
			Date:    input.StartDate.AddDate(0, i-1, 0),
			Amount:  finalMonthly,
			RowType: "dp_payment",
		})
	}
	schedule = append(schedule, ScheduleRow{
		Month:   input.TermMonths + 1,
		Date:    input.StartDate.AddDate(0, input.TermMonths, 0),
		Amount:  mortgageBody,
		RowType: "mortgage_body",
	})

	return &InstallmentResult{
		ListPrice:       input.ListPrice,
		DownPayment:     input.DownPayment,
		DiscountPercent: finalDiscountPercent,
		ContractValue:   finalContractValue,
		MonthlyPayment:  finalMonthly,
		TermMonths:      input.TermMonths,
		MortgageBody:    mortgageBody,
		Schedule:        schedule,
	}, nil
}
