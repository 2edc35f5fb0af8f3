package domain

import "github.com/shopspring/decimal"

// RateSet holds one life-table column for the whole population and per sex.
type RateSet struct {
	Total  decimal.Decimal `yaml:"total" json:"total"`
	Male   decimal.Decimal `yaml:"male" json:"male"`
	Female decimal.Decimal `yaml:"female" json:"female"`
}

// For returns the column value for sex.
func (r RateSet) For(sex Sex) decimal.Decimal {
	if sex == Female {
		return r.Female
	}
	return r.Male
}

// MortalityRow is one age of a national life table.
// Qx is the probability of dying before the next birthday, Px = 1 - Qx,
// Ex the remaining life expectancy in years.
type MortalityRow struct {
	Age int     `yaml:"age" json:"age"`
	Qx  RateSet `yaml:"qx" json:"qx"`
	Px  RateSet `yaml:"px" json:"px"`
	Ex  RateSet `yaml:"ex" json:"ex"`
}

// LifeTableMetadata describes where a life table came from.
type LifeTableMetadata struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source" json:"source"`
	Year   int    `yaml:"year" json:"year"`
}

// LifeTableData is the serialized form of a life table.
type LifeTableData struct {
	Metadata LifeTableMetadata `yaml:"metadata" json:"metadata"`
	Rows     []MortalityRow    `yaml:"rows" json:"rows"`
}
