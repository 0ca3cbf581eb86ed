package pricing

import (
	"testing"

	"apartment-finder/internal/app/ds"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discountRow(complexName string, pm ds.PaymentMethod, mpp, rop float64) ds.Discount {
	return ds.Discount{
		ComplexName:   complexName,
		PropertyType:  ds.PropertyFlat,
		PaymentMethod: pm,
		Mpp:           mpp,
		Rop:           rop,
	}
}

func TestDiffVersions_AddedRemovedModified(t *testing.T) {
	old := testVersion(
		discountRow("Солнечный", ds.FullPayment, 0.05, 0.02),
		discountRow("Ривьера", ds.FullPayment, 0.04, 0.01),
	)
	updated := testVersion(
		discountRow("Солнечный", ds.FullPayment, 0.06, 0.02), // mpp изменён
		discountRow("Новый", ds.Mortgage, 0.03, 0.0),         // добавлен
	)

	diff := DiffVersions(old, updated)

	require.Len(t, diff.Added, 1)
	assert.Equal(t, "Новый", diff.Added[0].ComplexName)

	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "Ривьера", diff.Removed[0].ComplexName)

	require.Len(t, diff.Modified, 1)
	entry := diff.Modified[0]
	assert.Equal(t, "Солнечный", entry.Key.ComplexName)
	require.Len(t, entry.Changes, 1)
	change := entry.Changes[0]
	assert.Equal(t, "mpp", change.Field)
	assert.True(t, change.Increased())
	assert.InDelta(t, 1.0, change.DeltaPoints(), 1e-9)
}

func TestDiffVersions_EpsilonIgnored(t *testing.T) {
	old := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))
	updated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05+1e-12, 0.02))

	diff := DiffVersions(old, updated)
	assert.True(t, diff.Empty())
}

func TestDiffVersions_IdenticalClone(t *testing.T) {
	version := testVersion(
		discountRow("Солнечный", ds.FullPayment, 0.05, 0.02),
		discountRow("Ривьера", ds.Mortgage, 0.04, 0.01),
	)
	clone := testVersion(
		discountRow("Ривьера", ds.Mortgage, 0.04, 0.01),
		discountRow("Солнечный", ds.FullPayment, 0.05, 0.02),
	)

	// Порядок строк не влияет на сравнение
	assert.True(t, DiffVersions(version, clone).Empty())
}

func TestDiffVersions_NilOldVersion(t *testing.T) {
	updated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))

	diff := DiffVersions(nil, updated)
	assert.Len(t, diff.Added, 1)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Modified)
}

func TestVersionDiff_JSON(t *testing.T) {
	old := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))
	updated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.07, 0.02))

	raw := DiffVersions(old, updated).JSON()
	assert.Contains(t, raw, `"modified"`)
	assert.Contains(t, raw, `"mpp"`)
}

func TestRenderActivationEmail_FirstActivation(t *testing.T) {
	activated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))
	assert.Nil(t, RenderActivationEmail(nil, activated))
}

func TestRenderActivationEmail_Content(t *testing.T) {
	previous := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))
	previous.VersionNumber = 3

	activated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.07, 0.02))
	activated.VersionNumber = 4
	activated.Comment = "октябрьские ставки"
	activated.ComplexComments = []ds.ComplexComment{
		{ComplexName: "Солнечный", Comment: "сдача в декабре"},
	}

	email := RenderActivationEmail(previous, activated)
	require.NotNil(t, email)

	assert.Equal(t, "Активирована версия скидок №4", email.Subject)
	assert.Contains(t, email.Body, "№3")
	assert.Contains(t, email.Body, "октябрьские ставки")
	assert.Contains(t, email.Body, "MPP")
	assert.Contains(t, email.Body, "повышена")
	assert.Contains(t, email.Body, "2.00 п.п.")
	assert.Contains(t, email.Body, "сдача в декабре")
}

func TestRenderActivationEmail_NoChanges(t *testing.T) {
	previous := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))
	activated := testVersion(discountRow("Солнечный", ds.FullPayment, 0.05, 0.02))

	email := RenderActivationEmail(previous, activated)
	require.NotNil(t, email)
	assert.Contains(t, email.Body, "Ставки не изменились")
}
