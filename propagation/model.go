package propagation

// Relationship is the cardinality of a link field.
type Relationship string

const (
	OneOne   Relationship = "oneOne"
	OneMany  Relationship = "oneMany"
	ManyOne  Relationship = "manyOne"
	ManyMany Relationship = "manyMany"
)

// Link is one element of a topological link order: the hop from records
// of LinkedDbTableName to the records of DbTableName whose link field
// FieldID references them.
type Link struct {
	// FieldID is the link field being recomputed.
	FieldID      string       `json:"fieldId"`
	Relationship Relationship `json:"relationship"`
	// DbTableName is the table owning the link field.
	DbTableName string `json:"dbTableName"`
	// LinkedDbTableName is the table the link points at.
	LinkedDbTableName string `json:"linkedDbTableName"`
	// FkHostTableName is the table holding ForeignKeyName. It defaults to
	// LinkedDbTableName for one-to-many links and DbTableName otherwise; a
	// many-to-many link names its junction table.
	FkHostTableName string `json:"fkHostTableName,omitempty"`
	// SelfKeyName is the fk host column identifying the dependent record,
	// "__id" by default.
	SelfKeyName string `json:"selfKeyName,omitempty"`
	// ForeignKeyName is the fk host column referencing the linked record.
	ForeignKeyName string `json:"foreignKeyName"`
}

// RecordRef identifies a changed seed record.
type RecordRef struct {
	DbTableName string `json:"dbTableName"`
	ID          string `json:"id"`
}

// AffectedRecord is one output tuple: a record reached by one hop.
// SelectIn is set by one-to-many hops ("<fkHost>#<fkColumn>"), RelationTo
// by every other hop (the id of the record it was reached from).
type AffectedRecord struct {
	ID          string `json:"id"`
	DbTableName string `json:"dbTableName"`
	FieldID     string `json:"fieldId"`
	SelectIn    string `json:"selectIn,omitempty"`
	RelationTo  string `json:"relationTo,omitempty"`
}

func (l Link) host() string {
	if l.FkHostTableName != "" {
		return l.FkHostTableName
	}
	if l.Relationship == OneMany {
		return l.LinkedDbTableName
	}
	return l.DbTableName
}

func (l Link) selfKey() string {
	if l.SelfKeyName != "" {
		return l.SelfKeyName
	}
	return idColumn
}
