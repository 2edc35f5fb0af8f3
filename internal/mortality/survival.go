package mortality

import (
	"sync"

	"github.com/rgehrsitz/payoutgo/internal/domain"
)

// Curve is the survivorship curve of one sex: the probability, from radix 1 at age 0,
// of being alive at each tabulated age.
type Curve struct {
	sex       domain.Sex
	survivors []float64
}

// BuildCurve computes the whole curve in a single forward pass:
// survivors(0) = 1, survivors(a) = survivors(a-1) * px(a-1).
func BuildCurve(t *LifeTable, sex domain.Sex) Curve {
	px := t.px(sex)
	s := make([]float64, len(px))
	s[0] = 1
	for a := 1; a < len(s); a++ {
		s[a] = s[a-1] * px[a-1]
	}
	return Curve{sex: sex, survivors: s}
}

// Sex returns the sex the curve was built for.
func (c Curve) Sex() domain.Sex {
	return c.sex
}

// MaxAge returns the terminal age of the underlying table.
func (c Curve) MaxAge() int {
	return len(c.survivors) - 1
}

// At returns survivors(age). Ages past the terminal age return 0; the caller is
// responsible for rejecting negative ages.
func (c Curve) At(age int) float64 {
	if age > c.MaxAge() {
		return 0
	}
	return c.survivors[age]
}

// Values returns a copy of the curve.
func (c Curve) Values() []float64 {
	out := make([]float64, len(c.survivors))
	copy(out, c.survivors)
	return out
}

// SurvivalCache holds one curve per sex for a table, each built at most once.
// It is owned by the caller and safe for concurrent use.
type SurvivalCache struct {
	table  *LifeTable
	male   lazyCurve
	female lazyCurve
}

type lazyCurve struct {
	once  sync.Once
	curve Curve
}

// NewSurvivalCache creates an empty cache over table.
func NewSurvivalCache(table *LifeTable) *SurvivalCache {
	return &SurvivalCache{table: table}
}

// Table returns the table the cache was built over.
func (c *SurvivalCache) Table() *LifeTable {
	return c.table
}

// Curve returns the curve for sex, building it on first use.
func (c *SurvivalCache) Curve(sex domain.Sex) Curve {
	lc := &c.male
	if sex == domain.Female {
		lc = &c.female
	}
	lc.once.Do(func() {
		lc.curve = BuildCurve(c.table, sex)
	})
	return lc.curve
}
