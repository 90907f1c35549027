package storage

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// TableName is the table holding one row per reported measurement.
const TableName = "vital_scores"

// Column names of TableName. This list is the only source of identifiers
// that may appear in generated SQL.
const (
	ColumnID              = "score_id"
	ColumnMetric          = "metric"
	ColumnValue           = "value"
	ColumnURL             = "url"
	ColumnConnectionSpeed = "connection_speed"
	ColumnCreatedAt       = "created_at"
)

// Columns lists every column in table order.
var Columns = []string{
	ColumnID,
	ColumnMetric,
	ColumnValue,
	ColumnURL,
	ColumnConnectionSpeed,
	ColumnCreatedAt,
}

var (
	scoresTable = goqu.T(TableName)

	colScoreID         = goqu.I(TableName + "." + ColumnID)
	colMetric          = goqu.I(TableName + "." + ColumnMetric)
	colValue           = goqu.I(TableName + "." + ColumnValue)
	colURL             = goqu.I(TableName + "." + ColumnURL)
	colConnectionSpeed = goqu.I(TableName + "." + ColumnConnectionSpeed)
	colCreatedAt       = goqu.I(TableName + "." + ColumnCreatedAt)

	columnIdentifiers = map[string]exp.IdentifierExpression{
		ColumnID:              colScoreID,
		ColumnMetric:          colMetric,
		ColumnValue:           colValue,
		ColumnURL:             colURL,
		ColumnConnectionSpeed: colConnectionSpeed,
		ColumnCreatedAt:       colCreatedAt,
	}

	// "id" is accepted for callers that do not know the storage name.
	columnAliases = map[string]string{
		"id": ColumnID,
	}
)

// canonicalColumn maps a caller-supplied name to a whitelisted column name.
func canonicalColumn(name string) (string, bool) {
	if alias, ok := columnAliases[name]; ok {
		name = alias
	}
	_, ok := columnIdentifiers[name]
	return name, ok
}

// ValidateColumn resolves column against the whitelist, substituting
// fallback when column is unknown. When neither is a known column it
// returns ok == false and the caller must not build a clause from it.
func ValidateColumn(column, fallback string) (ident exp.IdentifierExpression, ok bool) {
	if name, known := canonicalColumn(column); known {
		return columnIdentifiers[name], true
	}
	if name, known := canonicalColumn(fallback); known {
		return columnIdentifiers[name], true
	}
	return nil, false
}

func selectColumns() []interface{} {
	cols := make([]interface{}, len(Columns))
	for i, name := range Columns {
		cols[i] = columnIdentifiers[name]
	}
	return cols
}
