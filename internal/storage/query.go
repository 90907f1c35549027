package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
)

// BucketWidth is the width of one histogram bucket, in the unit of value.
const BucketWidth = 10

// timestampLayout is how created_at is stored; lexicographic order equals
// chronological order for UTC values in this layout.
const timestampLayout = "2006-01-02 15:04:05"

var dialect = goqu.Dialect("sqlite3")

// noMatch stands in for a clause whose column failed the whitelist.
var noMatch = goqu.L("1 = 0")

// bucketExpr rounds value to the nearest multiple of BucketWidth. The width
// is a compile-time constant, not caller input.
var bucketExpr = goqu.L(
	fmt.Sprintf("CAST(ROUND(? / %d.0) AS INTEGER) * %d", BucketWidth, BucketWidth),
	colValue,
)

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func equalsClause(column string, value interface{}) exp.Expression {
	col, ok := ValidateColumn(column, ColumnMetric)
	if !ok {
		return noMatch
	}
	return col.Eq(value)
}

func inClause(column string, values []interface{}) exp.Expression {
	col, ok := ValidateColumn(column, ColumnMetric)
	if !ok || len(values) == 0 {
		return noMatch
	}
	return col.In(values...)
}

func likeClause(column, substr string) exp.Expression {
	col, ok := ValidateColumn(column, ColumnURL)
	if !ok {
		return noMatch
	}
	pattern := "%" + escapeLike(substr) + "%"
	return goqu.L(`? LIKE ? ESCAPE '\'`, col, pattern)
}

func dateClause(column string, start, end time.Time) exp.Expression {
	col, ok := ValidateColumn(column, ColumnCreatedAt)
	if !ok {
		return noMatch
	}
	return col.Between(goqu.Range(formatTimestamp(start), formatTimestamp(end)))
}

// escapeLike escapes LIKE wildcards so substr matches literally.
func escapeLike(substr string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(substr)
}

// clauses builds the WHERE predicate shared by every render mode.
func (f QueryFilter) clauses() []exp.Expression {
	metrics := make([]interface{}, len(f.Metrics))
	for i, m := range f.Metrics {
		metrics[i] = string(m)
	}

	where := []exp.Expression{
		dateClause(ColumnCreatedAt, f.DateStart, f.DateEnd),
		inClause(ColumnMetric, metrics),
	}
	if f.URL != "" {
		where = append(where, equalsClause(ColumnURL, f.URL))
	}
	if f.URLContains != "" {
		where = append(where, likeClause(ColumnURL, f.URLContains))
	}
	return where
}

func (f QueryFilter) ordering() (exp.OrderedExpression, bool) {
	col, ok := ValidateColumn(f.OrderBy, ColumnID)
	if !ok {
		return nil, false
	}
	if f.Order == OrderDesc {
		return col.Desc(), true
	}
	return col.Asc(), true
}

// aggregateDataset renders the clauses only; no ORDER BY, no LIMIT.
func aggregateDataset(f QueryFilter) *goqu.SelectDataset {
	return dialect.From(scoresTable).
		Where(f.clauses()...).
		Prepared(true)
}

// limitedDataset renders the clauses with the row cap.
func limitedDataset(f QueryFilter) *goqu.SelectDataset {
	return aggregateDataset(f).Limit(uint(f.Count))
}

// listingDataset renders the clauses with ORDER BY and the row cap.
func listingDataset(f QueryFilter) *goqu.SelectDataset {
	ds := limitedDataset(f).Select(selectColumns()...)
	if order, ok := f.ordering(); ok {
		ds = ds.Order(order)
	}
	return ds
}
