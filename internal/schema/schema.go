// Package schema scans the sqlite_schema (page 1) table to locate a
// table's root page, its CREATE TABLE text, and the indexes defined on
// it, and recovers column lists from CREATE TABLE / CREATE INDEX SQL.
package schema

import (
	"strings"

	"github.com/mattleeder/sgl/internal/cellcodec"
	"github.com/mattleeder/sgl/internal/dberrors"
	"github.com/mattleeder/sgl/internal/page"
	"github.com/mattleeder/sgl/internal/pager"
	"github.com/mattleeder/sgl/internal/record"
	"github.com/xwb1989/sqlparser"
)

// Record is one row of sqlite_schema.
type Record struct {
	Type     string // "table", "index", "view", "trigger"
	Name     string
	TblName  string
	RootPage uint32
	SQL      string
}

// Catalog holds every sqlite_schema row, scanned once at startup.
type Catalog struct {
	Records []Record
}

// Load scans page 1's table-leaf cells (sqlite_schema is always rooted
// there) into a Catalog.
func Load(p *pager.Pager, assembler record.OverflowAssembler) (*Catalog, error) {
	pg, err := p.GetPage(1)
	if err != nil {
		return nil, err
	}
	defer p.ReleasePage(pg)

	headerOffset := page.HeaderOffset(1)
	hdr, err := page.ParseHeader(pg.Data, headerOffset)
	if err != nil {
		return nil, err
	}
	if hdr.Type != page.LeafTable {
		return nil, dberrors.New(dberrors.KindFormat, "load_schema_catalog", dberrors.ErrInvalidPageType)
	}
	pointers, err := page.ReadCellPointers(pg.Data, hdr, headerOffset)
	if err != nil {
		return nil, err
	}

	usable := p.UsableSize()
	records := make([]Record, 0, len(pointers))
	for _, ptr := range pointers {
		cell, err := cellcodec.ParseTableLeaf(pg.Data, int(ptr), usable)
		if err != nil {
			return nil, err
		}
		row, err := record.DecodeTableRow(cell, usable, assembler)
		if err != nil {
			return nil, err
		}
		rec, err := toSchemaRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return &Catalog{Records: records}, nil
}

// CellCount is the number of cells on the sqlite_schema root page, used
// by `.dbinfo`'s "number of tables" line.
func (c *Catalog) CellCount() int {
	return len(c.Records)
}

// Tables returns every table-type schema row's name, in scan order.
func (c *Catalog) Tables() []string {
	var names []string
	for _, r := range c.Records {
		if r.Type == "table" {
			names = append(names, r.Name)
		}
	}
	return names
}

// Table finds the schema row describing the named table.
func (c *Catalog) Table(name string) (Record, bool) {
	for _, r := range c.Records {
		if r.Type == "table" && strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Record{}, false
}

// Indexes returns every index schema row defined on the named table.
func (c *Catalog) Indexes(tableName string) []Record {
	var out []Record
	for _, r := range c.Records {
		if r.Type == "index" && strings.EqualFold(r.TblName, tableName) {
			out = append(out, r)
		}
	}
	return out
}

func toSchemaRecord(row record.Row) (Record, error) {
	if len(row.Values) != 5 {
		return Record{}, dberrors.Newf(dberrors.KindSchema, "parse_schema_record", dberrors.ErrRecordHeaderLength, map[string]any{"columns": len(row.Values)})
	}
	typ := row.Values[0].String()
	name := row.Values[1].String()
	tblName := row.Values[2].String()
	rootPageVal := row.Values[3]
	sql := row.Values[4].String()
	if rootPageVal.Kind != record.KindInt {
		return Record{}, dberrors.New(dberrors.KindSchema, "parse_schema_record", dberrors.ErrNonIntegerRowid)
	}
	return Record{
		Type:     typ,
		Name:     name,
		TblName:  tblName,
		RootPage: uint32(rootPageVal.Int),
		SQL:      sql,
	}, nil
}

// Column is one declared column of a table, in declaration order.
type Column struct {
	Name string
	Type string
}

// ParseCreateTable recovers the declared column list from a CREATE
// TABLE statement, via sqlparser after normalizing SQLite-only syntax
// it doesn't accept.
func ParseCreateTable(sql string) ([]Column, error) {
	normalized := normalizeForParser(sql)
	stmt, err := sqlparser.Parse(normalized)
	if err != nil {
		return nil, dberrors.Newf(dberrors.KindSchema, "parse_create_table", dberrors.ErrSQLParse, map[string]any{"sql": sql})
	}
	ddl, ok := stmt.(*sqlparser.DDL)
	if !ok || ddl.Action != "create" || ddl.TableSpec == nil {
		return nil, dberrors.New(dberrors.KindSchema, "parse_create_table", dberrors.ErrSQLParse)
	}
	columns := make([]Column, len(ddl.TableSpec.Columns))
	for i, col := range ddl.TableSpec.Columns {
		columns[i] = Column{
			Name: col.Name.String(),
			Type: col.Type.Type,
		}
	}
	return columns, nil
}

// normalizeForParser rewrites SQLite-only CREATE TABLE syntax into the
// subset xwb1989/sqlparser (a MySQL-dialect parser) accepts.
func normalizeForParser(sql string) string {
	normalized := strings.ReplaceAll(sql, `"`, "")
	lower := strings.ToLower(normalized)
	if i := strings.Index(lower, "primary key autoincrement"); i >= 0 {
		normalized = normalized[:i] + "AUTO_INCREMENT PRIMARY KEY" + normalized[i+len("primary key autoincrement"):]
	}
	return strings.TrimSpace(normalized)
}

// ParseCreateIndexColumns recovers the ordered column list from a
// CREATE [UNIQUE] INDEX [IF NOT EXISTS] [schema.]name ON table (cols)
// statement. xwb1989/sqlparser has no CREATE INDEX support, so this
// parses the parenthesized column list directly, mirroring the
// teacher's hand-rolled approach for the same grammar.
func ParseCreateIndexColumns(sql string) []string {
	start := strings.Index(sql, "(")
	end := strings.LastIndex(sql, ")")
	if start == -1 || end == -1 || start >= end {
		return nil
	}
	parts := strings.Split(sql[start+1:end], ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.TrimSpace(p))
	}
	return cols
}
