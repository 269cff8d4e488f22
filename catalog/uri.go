package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme is the URI scheme under which catalog resources are exposed.
const Scheme = "clickhouse://"

var (
	ErrInvalidScheme   = errors.New("invalid URI scheme")
	ErrInvalidResource = errors.New("invalid resource URI")
)

// RefKind discriminates the two resource shapes.
type RefKind int

const (
	// KindTableList addresses the table list of one database.
	KindTableList RefKind = iota
	// KindTableSchema addresses the column schema of one table.
	KindTableSchema
)

// Ref is a parsed resource URI. Table is set only for KindTableSchema.
type Ref struct {
	Kind     RefKind
	Database string
	Table    string
}

// TableListURI builds the URI addressing one database's table list.
func TableListURI(database string) string {
	return Scheme + database + "/tables"
}

// SchemaURI builds the URI addressing one table's schema.
func SchemaURI(database, table string) string {
	return Scheme + database + "/" + table + "/schema"
}

// ParseURI maps a resource URI onto a Ref. Anything outside the two
// supported shapes is rejected here, before any database contact.
func ParseURI(uri string) (Ref, error) {
	rest, ok := strings.CutPrefix(uri, Scheme)
	if !ok {
		return Ref{}, fmt.Errorf("%w: %s", ErrInvalidScheme, uri)
	}

	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] == "tables":
		return Ref{Kind: KindTableList, Database: parts[0]}, nil
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] == "schema":
		return Ref{Kind: KindTableSchema, Database: parts[0], Table: parts[1]}, nil
	default:
		return Ref{}, fmt.Errorf("%w: %s", ErrInvalidResource, uri)
	}
}
