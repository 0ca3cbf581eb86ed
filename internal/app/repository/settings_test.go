package repository

import (
	"testing"

	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatorSettings_Defaults(t *testing.T) {
	repo := setupTenantRepo(t)

	settings, err := repo.CalculatorSettings()
	require.NoError(t, err)
	assert.Equal(t, 6, settings.DpInstallmentMaxTerm)
	assert.InDelta(t, 16.5, settings.TimeValueRateAnnual, 1e-9)
	assert.InDelta(t, 15.0, settings.StandardInstallmentMinDp, 1e-9)
	assert.Empty(t, settings.StandardWhitelist())
}

func TestCalculatorSettings_WhitelistRoundTrip(t *testing.T) {
	repo := setupTenantRepo(t)

	settings, err := repo.CalculatorSettings()
	require.NoError(t, err)

	settings.StandardInstallmentWhitelist = FormatWhitelist([]uint{101, 102, 103})
	settings.DpInstallmentWhitelist = FormatWhitelist(nil)
	require.NoError(t, repo.SaveCalculatorSettings(settings))

	reloaded, err := repo.CalculatorSettings()
	require.NoError(t, err)
	assert.Equal(t, []uint{101, 102, 103}, reloaded.StandardWhitelist())
	assert.Empty(t, reloaded.DpWhitelist())
}

func TestExcludeSell_Idempotent(t *testing.T) {
	repo := setupTenantRepo(t)

	require.NoError(t, repo.ExcludeSell(42, "служебный резерв"))
	require.NoError(t, repo.ExcludeSell(42, "другой комментарий"))

	ids, err := repo.ExcludedSellIDs()
	require.NoError(t, err)
	assert.Equal(t, []uint{42}, ids)

	require.NoError(t, repo.IncludeSell(42))
	ids, err = repo.ExcludedSellIDs()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestExcludeComplex(t *testing.T) {
	repo := setupTenantRepo(t)

	require.NoError(t, repo.ExcludeComplex("Солнечный"))
	require.NoError(t, repo.ExcludeComplex("Солнечный"))

	names, err := repo.ExcludedComplexNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"Солнечный"}, names)

	require.NoError(t, repo.IncludeComplex("Солнечный"))
	names, err = repo.ExcludedComplexNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUpsertSalesPlan(t *testing.T) {
	repo := setupTenantRepo(t)

	plan := &ds.SalesPlan{
		ComplexName: "Солнечный", PropertyType: "FLAT",
		Year: 2026, Month: 9,
		PlanUnits: 10, PlanVolume: 8_000_000_000,
	}
	require.NoError(t, repo.UpsertSalesPlan(plan))

	// Повторная загрузка того же периода перезаписывает значения
	plan2 := &ds.SalesPlan{
		ComplexName: "Солнечный", PropertyType: "FLAT",
		Year: 2026, Month: 9,
		PlanUnits: 12, PlanVolume: 9_500_000_000,
	}
	require.NoError(t, repo.UpsertSalesPlan(plan2))

	plans, err := repo.SalesPlans(2026, 9)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 12, plans[0].PlanUnits)
	assert.InDelta(t, 9_500_000_000, plans[0].PlanVolume, 0.01)

	// Другой период пуст
	plans, err = repo.SalesPlans(2026, 10)
	require.NoError(t, err)
	assert.Empty(t, plans)
}
