package repository

import (
	"math"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableTaxYears    = "tax_years"
	tableDocuments   = "documents"
	tableW2          = "w2_data"
	table1099INT     = "form_1099_int"
	table1099DIV     = "form_1099_div"
	longText         = math.MaxInt32
	moneyPrecisionPG = "numeric(14,2)"
)

func uuidCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeUUID}
}

func textCol(name string, nullable bool) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Size: longText, Nullable: nullable}
}

// moneyCol keeps amounts exact: numeric on postgres, decimal text on sqlite.
func moneyCol(name string) *schema.Column {
	return &schema.Column{
		Name:       name,
		Type:       field.TypeString,
		Size:       32,
		Nullable:   true,
		SchemaType: map[string]string{dialect.Postgres: moneyPrecisionPG},
	}
}

func boolCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeBool, Default: false}
}

func timeCol(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime}
}

var (
	taxYearsColumns = []*schema.Column{
		uuidCol("id"),
		{Name: "year", Type: field.TypeInt, Unique: true},
		textCol("filing_status", true),
		timeCol("created_at"),
	}
	TaxYearsTable = &schema.Table{
		Name:       tableTaxYears,
		Columns:    taxYearsColumns,
		PrimaryKey: []*schema.Column{taxYearsColumns[0]},
	}

	documentsColumns = []*schema.Column{
		uuidCol("id"),
		uuidCol("tax_year_id"),
		{Name: "document_type", Type: field.TypeString, Size: 32},
		{Name: "classification_confidence", Type: field.TypeFloat64, Default: 0},
		textCol("file_name", false),
		textCol("file_path", false),
		{Name: "file_hash", Type: field.TypeString, Size: 64},
		textCol("ocr_text", true),
		{Name: "text_method", Type: field.TypeString, Size: 32, Nullable: true},
		{Name: "processing_status", Type: field.TypeString, Size: 32},
		textCol("error_message", true),
		{Name: "extraction_backend", Type: field.TypeString, Size: 64, Nullable: true},
		textCol("warnings", true),
		timeCol("created_at"),
		timeCol("updated_at"),
	}
	DocumentsTable = &schema.Table{
		Name:       tableDocuments,
		Columns:    documentsColumns,
		PrimaryKey: []*schema.Column{documentsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     "documents_tax_years_documents",
				Columns:    []*schema.Column{documentsColumns[1]},
				RefColumns: []*schema.Column{taxYearsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
		Indexes: []*schema.Index{
			{Name: "documents_tax_year_id_file_hash", Unique: true, Columns: []*schema.Column{documentsColumns[1], documentsColumns[6]}},
			{Name: "idx_documents_tax_year", Columns: []*schema.Column{documentsColumns[1]}},
			{Name: "idx_documents_type", Columns: []*schema.Column{documentsColumns[2]}},
			{Name: "idx_documents_status", Columns: []*schema.Column{documentsColumns[9]}},
		},
	}

	W2Table  = recordTable(tableW2, w2Columns)
	INTTable = recordTable(table1099INT, intColumns)
	DIVTable = recordTable(table1099DIV, divColumns)

	// Tables in dependency order.
	Tables = []*schema.Table{TaxYearsTable, DocumentsTable, W2Table, INTTable, DIVTable}
)

// recordTable lays out one per-form table: id, a unique document_id that
// cascades with its document, then the form columns.
func recordTable(name string, specs []colSpec) *schema.Table {
	cols := []*schema.Column{
		uuidCol("id"),
		{Name: "document_id", Type: field.TypeUUID, Unique: true},
	}
	for _, s := range specs {
		switch s.kind {
		case kindMoney:
			cols = append(cols, moneyCol(s.name))
		case kindBool:
			cols = append(cols, boolCol(s.name))
		default:
			cols = append(cols, textCol(s.name, true))
		}
	}
	return &schema.Table{
		Name:       name,
		Columns:    cols,
		PrimaryKey: []*schema.Column{cols[0]},
		ForeignKeys: []*schema.ForeignKey{
			{
				Symbol:     name + "_documents_record",
				Columns:    []*schema.Column{cols[1]},
				RefColumns: []*schema.Column{documentsColumns[0]},
				OnDelete:   schema.Cascade,
			},
		},
	}
}

func init() {
	DocumentsTable.ForeignKeys[0].RefTable = TaxYearsTable
	for _, t := range []*schema.Table{W2Table, INTTable, DIVTable} {
		t.ForeignKeys[0].RefTable = DocumentsTable
	}
}
