package resolver

import (
	"testing"

	"github.com/mattleeder/sgl/internal/schema"
	"github.com/xwb1989/sqlparser"
)

func selectExprs(t *testing.T, sql string) sqlparser.SelectExprs {
	t.Helper()
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok {
		t.Fatalf("expected a SELECT, got %T", stmt)
	}
	return sel.SelectExprs
}

func columns() []schema.Column {
	return []schema.Column{{Name: "id"}, {Name: "name"}, {Name: "age"}}
}

func TestNewMarksRowidAliasWhenFirstColumnIsId(t *testing.T) {
	r := New(columns())
	if !r.RowidAlias {
		t.Fatal("expected RowidAlias to be true when first column is named id")
	}
}

func TestNewDoesNotMarkRowidAliasOtherwise(t *testing.T) {
	r := New([]schema.Column{{Name: "name"}, {Name: "age"}})
	if r.RowidAlias {
		t.Fatal("expected RowidAlias to be false")
	}
}

func TestResolveSelectListStarExpandsAllColumns(t *testing.T) {
	r := New(columns())
	targets, hasAgg, err := r.ResolveSelectList(selectExprs(t, "select * from t"))
	if err != nil {
		t.Fatal(err)
	}
	if hasAgg {
		t.Fatal("expected no aggregate")
	}
	if len(targets) != 3 {
		t.Fatalf("len(targets) = %d, want 3", len(targets))
	}
	if !targets[0].IsRowid {
		t.Error("expected the first target (id) to be the rowid alias")
	}
	if targets[1].ColumnIndex != 1 {
		t.Errorf("targets[1].ColumnIndex = %d, want 1", targets[1].ColumnIndex)
	}
}

func TestResolveSelectListCountIsAnAggregate(t *testing.T) {
	r := New(columns())
	targets, hasAgg, err := r.ResolveSelectList(selectExprs(t, "select count(*) from t"))
	if err != nil {
		t.Fatal(err)
	}
	if !hasAgg {
		t.Fatal("expected an aggregate")
	}
	if len(targets) != 1 || !targets[0].IsCount {
		t.Errorf("targets = %+v, want one IsCount target", targets)
	}
}

func TestResolveSelectListRejectsMixingAggregateAndColumn(t *testing.T) {
	r := New(columns())
	if _, _, err := r.ResolveSelectList(selectExprs(t, "select name, count(*) from t")); err == nil {
		t.Fatal("expected an error mixing a plain column with an aggregate")
	}
}

func TestResolveSelectListRejectsUnknownColumn(t *testing.T) {
	r := New(columns())
	if _, _, err := r.ResolveSelectList(selectExprs(t, "select missing from t")); err == nil {
		t.Fatal("expected an error for an unresolved column")
	}
}
