package mortality

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/payoutgo/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadDefaultTable(t *testing.T) *LifeTable {
	t.Helper()
	table, err := Default()
	require.NoError(t, err, "embedded table should load")
	return table
}

func TestDefault_Shape(t *testing.T) {
	table := loadDefaultTable(t)

	assert.Equal(t, 99, table.MaxAge())
	assert.Len(t, table.Rows(), 100)
	assert.Equal(t, 2025, table.Metadata().Year)
	assert.NotEmpty(t, table.Name())
}

func TestDefault_QxPlusPxIsOne(t *testing.T) {
	table := loadDefaultTable(t)
	one := decimal.NewFromInt(1)

	for _, row := range table.Rows() {
		for _, sex := range []domain.Sex{domain.Male, domain.Female} {
			qx, px, err := table.Mortality(row.Age, sex)
			require.NoError(t, err)
			assert.True(t, qx.Add(px).Equal(one), "age %d %s: qx+px=%s", row.Age, sex, qx.Add(px))
		}
		assert.True(t, row.Qx.Total.Add(row.Px.Total).Equal(one), "age %d total", row.Age)
	}
}

func TestMortality_KnownValues(t *testing.T) {
	table := loadDefaultTable(t)

	qx, px, err := table.Mortality(65, domain.Female)
	require.NoError(t, err)
	assert.Equal(t, "0.01262", qx.String())
	assert.Equal(t, "0.98738", px.String())

	qx, _, err = table.Mortality(65, domain.Male)
	require.NoError(t, err)
	assert.Equal(t, "0.02949", qx.String())

	ex, err := table.LifeExpectancy(65, domain.Female)
	require.NoError(t, err)
	assert.Equal(t, "18.55", ex.String())
}

func TestMortality_OutOfRange(t *testing.T) {
	table := loadDefaultTable(t)

	tests := []struct {
		name string
		age  int
	}{
		{"negative", -1},
		{"past terminal age", 100},
		{"far past terminal age", 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := table.Mortality(tt.age, domain.Male)
			assert.ErrorIs(t, err, domain.ErrInvalidAge)
		})
	}
}

func TestMortality_UnknownSex(t *testing.T) {
	table := loadDefaultTable(t)

	_, _, err := table.Mortality(40, domain.Sex("other"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestTableAge_RoundsHalfUp(t *testing.T) {
	table := loadDefaultTable(t)

	tests := []struct {
		age      float64
		expected int
	}{
		{64.49, 64},
		{64.5, 65},
		{64.51, 65},
		{65.0, 65},
		{99.4, 99},
		{0.2, 0},
	}

	for _, tt := range tests {
		got, err := table.TableAge(tt.age)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "age %v", tt.age)
	}

	_, err := table.TableAge(99.5)
	assert.ErrorIs(t, err, domain.ErrInvalidAge, "99.5 rounds to 100, past the table")
}

func TestNewLifeTable_Malformed(t *testing.T) {
	row := func(age int, qx, px string) domain.MortalityRow {
		q := decimal.RequireFromString(qx)
		p := decimal.RequireFromString(px)
		return domain.MortalityRow{
			Age: age,
			Qx:  domain.RateSet{Total: q, Male: q, Female: q},
			Px:  domain.RateSet{Total: p, Male: p, Female: p},
		}
	}

	tests := []struct {
		name string
		rows []domain.MortalityRow
	}{
		{"empty", nil},
		{"does not start at zero", []domain.MortalityRow{row(1, "0.1", "0.9")}},
		{"gap in ages", []domain.MortalityRow{row(0, "0.1", "0.9"), row(2, "0.1", "0.9")}},
		{"qx plus px not one", []domain.MortalityRow{row(0, "0.1", "0.8")}},
		{"qx above one", []domain.MortalityRow{row(0, "1.1", "-0.1")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewLifeTable(domain.LifeTableData{Rows: tt.rows})
			assert.Nil(t, table)
			assert.ErrorIs(t, err, domain.ErrMalformedLifeTable)
		})
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()

	valid := filepath.Join(tmpDir, "table.yaml")
	content := `
metadata:
  name: "two ages"
rows:
  - age: 0
    qx: {total: 0.5, male: 0.5, female: 0.25}
    px: {total: 0.5, male: 0.5, female: 0.75}
  - age: 1
    qx: {total: 1, male: 1, female: 1}
    px: {total: 0, male: 0, female: 0}
`
	require.NoError(t, os.WriteFile(valid, []byte(content), 0644))

	table, err := LoadFile(valid)
	require.NoError(t, err)
	assert.Equal(t, 1, table.MaxAge())
	assert.Equal(t, "two ages", table.Name())

	_, err = LoadFile(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")

	broken := filepath.Join(tmpDir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("rows: [unclosed"), 0644))
	_, err = LoadFile(broken)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse life table YAML")
}
