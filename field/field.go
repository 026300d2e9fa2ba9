// Package field holds the plain data description of a table field as the
// synchronization core needs it. Behaviour that depends on a field (legal
// statistics, SQL generation) lives in the packages that own it and takes a
// Field as a parameter.
package field

// Type is the user-facing field type.
type Type string

const (
	SingleLineText   Type = "singleLineText"
	LongText         Type = "longText"
	Number           Type = "number"
	Rating           Type = "rating"
	AutoNumber       Type = "autoNumber"
	Checkbox         Type = "checkbox"
	Date             Type = "date"
	CreatedTime      Type = "createdTime"
	LastModifiedTime Type = "lastModifiedTime"
	SingleSelect     Type = "singleSelect"
	MultipleSelect   Type = "multipleSelect"
	Attachment       Type = "attachment"
	User             Type = "user"
	CreatedBy        Type = "createdBy"
	LastModifiedBy   Type = "lastModifiedBy"
	Link             Type = "link"
	Formula          Type = "formula"
	Rollup           Type = "rollup"
)

// CellValueType is the logical type of a cell value.
type CellValueType string

const (
	String   CellValueType = "string"
	Numeric  CellValueType = "number"
	Boolean  CellValueType = "boolean"
	DateTime CellValueType = "dateTime"
)

// DbFieldType is the physical storage type of the column.
type DbFieldType string

const (
	Text     DbFieldType = "TEXT"
	Integer  DbFieldType = "INTEGER"
	Real     DbFieldType = "REAL"
	Bool     DbFieldType = "BOOLEAN"
	Datetime DbFieldType = "DATETIME"
	JSON     DbFieldType = "JSON"
	Blob     DbFieldType = "BLOB"
)

// Field describes one column of a table.
type Field struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Type                Type          `json:"type"`
	CellValueType       CellValueType `json:"cellValueType"`
	DbFieldType         DbFieldType   `json:"dbFieldType"`
	DbFieldName         string        `json:"dbFieldName"`
	IsMultipleCellValue bool          `json:"isMultipleCellValue,omitempty"`
	IsLookup            bool          `json:"isLookup,omitempty"`
}

// IsUserReference reports whether cells embed a user object ({id, title, ...}).
func (f Field) IsUserReference() bool {
	switch f.Type {
	case User, CreatedBy, LastModifiedBy:
		return true
	}
	return false
}

// IsStructured reports whether the column stores JSON.
func (f Field) IsStructured() bool { return f.DbFieldType == JSON }

// Index returns fields keyed by id.
func Index(fields []Field) map[string]Field {
	out := make(map[string]Field, len(fields))
	for _, f := range fields {
		out[f.ID] = f
	}
	return out
}
