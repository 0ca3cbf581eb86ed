package pricing

import (
	"testing"

	"apartment-finder/internal/app/apperr"
	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVersion(discounts ...ds.Discount) *ds.DiscountVersion {
	return &ds.DiscountVersion{
		ID:            1,
		VersionNumber: 7,
		IsActive:      true,
		Discounts:     discounts,
	}
}

func TestQuoteUnit_FlatFullPayment(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Mpp:           0.05,
		Rop:           0.03,
		Action:        0.02,
	})

	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     100_000_000,
	})
	require.NoError(t, err)

	// (100 000 000 - 3 000 000) * (1 - 0.10)
	assert.InDelta(t, 87_300_000, quote.FinalPrice, 0.01)
	assert.InDelta(t, 3_000_000, quote.Deduction, 0.01)
	assert.InDelta(t, 0.10, quote.TotalRate, 1e-12)
	assert.Equal(t, 7, quote.VersionNumber)
}

func TestQuoteUnit_NonFlatSkipsDeduction(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyParking,
		PaymentMethod: ds.FullPayment,
		Mpp:           0.05,
	})

	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyParking,
		PaymentMethod: ds.FullPayment,
		ListPrice:     10_000_000,
	})
	require.NoError(t, err)
	assert.Zero(t, quote.Deduction)
	assert.InDelta(t, 9_500_000, quote.FinalPrice, 0.01)
}

func TestQuoteUnit_NoActiveVersion(t *testing.T) {
	_, err := QuoteUnit(nil, QuoteInput{ListPrice: 100_000_000})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Domain))
}

func TestQuoteUnit_MissingDiscountMeansZeroRates(t *testing.T) {
	version := testVersion()

	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Неизвестный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     50_000_000,
	})
	require.NoError(t, err)
	assert.Zero(t, quote.TotalRate)
	assert.InDelta(t, 47_000_000, quote.FinalPrice, 0.01)
}

func TestQuoteUnit_PriceBelowDeduction(t *testing.T) {
	version := testVersion()

	_, err := QuoteUnit(version, QuoteInput{
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     2_000_000,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestQuoteUnit_ExtraWithinCap(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Mpp:           0.05,
		Kd:            0.02,
	})

	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     100_000_000,
		Extra:         map[string]float64{"kd": 0.015},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.065, quote.TotalRate, 1e-12)
}

func TestQuoteUnit_ExtraAboveCapRejected(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Kd:            0.02,
	})

	_, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     100_000_000,
		Extra:         map[string]float64{"kd": 0.03},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestQuoteUnit_MortgageMinimumDownPayment(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
	})

	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
		ListPrice:     103_000_000,
	})
	require.NoError(t, err)

	// Нулевой взнос означает минимальный: 15% от итоговой цены
	assert.InDelta(t, 15_000_000, quote.DownPayment, 0.01)
	assert.InDelta(t, 85_000_000, quote.MortgageBody, 0.01)
}

func TestQuoteUnit_MortgageDownPaymentCoversExcess(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Дорогой",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
	})

	// Итоговая цена 600 млн: 15% было бы 90 млн, но тело ипотеки
	// ограничено 420 млн, взнос дотягивается до 180 млн
	quote, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Дорогой",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
		ListPrice:     603_000_000,
	})
	require.NoError(t, err)
	assert.InDelta(t, 180_000_000, quote.DownPayment, 0.01)
	assert.InDelta(t, 420_000_000, quote.MortgageBody, 0.01)
}

func TestQuoteUnit_MortgageDownPaymentTooSmall(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
	})

	_, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.Mortgage,
		ListPrice:     103_000_000,
		DownPayment:   5_000_000,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestQuoteUnit_MortgageBodyOverLimit(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Дорогой",
		PropertyType:  ds.PropertyCommercial,
		PaymentMethod: ds.Mortgage,
	})

	_, err := QuoteUnit(version, QuoteInput{
		ComplexName:   "Дорогой",
		PropertyType:  ds.PropertyCommercial,
		PaymentMethod: ds.Mortgage,
		ListPrice:     2_000_000_000,
		DownPayment:   300_000_000,
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestQuoteUnit_Deterministic(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Mpp:           0.047,
		Rop:           0.021,
		Action:        0.013,
	})
	input := QuoteInput{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		ListPrice:     123_456_789,
	}

	first, err := QuoteUnit(version, input)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := QuoteUnit(version, input)
		require.NoError(t, err)
		assert.Equal(t, first.FinalPrice, again.FinalPrice)
	}
}

func TestBottomPrice(t *testing.T) {
	version := testVersion(ds.Discount{
		ComplexName:   "Солнечный",
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: ds.FullPayment,
		Mpp:           0.05,
		Rop:           0.03,
		Kd:            0.02,
		Action:        0.10, // акция в нижнюю границу не входит
	})

	price := BottomPrice(version, "Солнечный", ds.PropertyFlat, 103_000_000)
	assert.InDelta(t, 90_000_000, price, 0.01)

	assert.Zero(t, BottomPrice(nil, "Солнечный", ds.PropertyFlat, 103_000_000))
	assert.Zero(t, BottomPrice(version, "Солнечный", ds.PropertyFlat, 2_000_000))
}
