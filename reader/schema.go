package reader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// SchemaInfo describes one leaf column of an event file.
type SchemaInfo struct {
	Name         string `json:"name"`
	Collection   string `json:"collection"`
	PhysicalType string `json:"physical_type"`
	Numeric      bool   `json:"numeric"`
	Optional     bool   `json:"optional"`
	Jagged       bool   `json:"jagged"`
}

// CollectionInfo summarizes the columns sharing a prefix, e.g. all
// Electron_* columns.
type CollectionInfo struct {
	Name    string
	Columns []string
	Jagged  bool
}

// ExtractSchemaInfo returns the leaf columns of the channel's event file.
//
// Nested groups are flattened with dot notation. Collections are derived
// from the text before the first underscore of the column name.
func (d *Dataset) ExtractSchemaInfo(channel string) ([]SchemaInfo, error) {
	t, err := d.OpenTree(channel, 0, 0)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.Close() }()

	var infos []SchemaInfo
	for _, field := range t.Schema().Fields() {
		infos = append(infos, extractFieldInfo(field, "", false)...)
	}
	return infos, nil
}

// extractFieldInfo recursively extracts schema information from a field,
// tracking whether any parent field is repeated.
func extractFieldInfo(field parquet.Field, prefix string, parentRepeated bool) []SchemaInfo {
	fieldName := field.Name()
	if prefix != "" {
		fieldName = prefix + "." + fieldName
	}
	repeated := parentRepeated || field.Repeated()

	if children := field.Fields(); len(children) > 0 {
		var infos []SchemaInfo
		for _, child := range children {
			infos = append(infos, extractFieldInfo(child, fieldName, repeated)...)
		}
		return infos
	}

	collection := fieldName
	if i := strings.IndexByte(fieldName, '_'); i > 0 {
		collection = fieldName[:i]
	}

	physical := getPhysicalType(field)
	return []SchemaInfo{{
		Name:         fieldName,
		Collection:   collection,
		PhysicalType: physical,
		Numeric:      isNumeric(physical),
		Optional:     field.Optional(),
		Jagged:       repeated,
	}}
}

// Collections groups schema entries by collection, sorted by name.
func Collections(infos []SchemaInfo) []CollectionInfo {
	byName := make(map[string]*CollectionInfo)
	for _, info := range infos {
		c, ok := byName[info.Collection]
		if !ok {
			c = &CollectionInfo{Name: info.Collection}
			byName[info.Collection] = c
		}
		c.Columns = append(c.Columns, info.Name)
		c.Jagged = c.Jagged || info.Jagged
	}

	out := make([]CollectionInfo, 0, len(byName))
	for _, c := range byName {
		sort.Strings(c.Columns)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// getPhysicalType returns the physical type name of a Parquet field.
func getPhysicalType(field parquet.Field) string {
	if field.Type() == nil {
		return "GROUP"
	}

	switch field.Type().Kind() {
	case parquet.Boolean:
		return "BOOLEAN"
	case parquet.Int32:
		return "INT32"
	case parquet.Int64:
		return "INT64"
	case parquet.Int96:
		return "INT96"
	case parquet.Float:
		return "FLOAT"
	case parquet.Double:
		return "DOUBLE"
	case parquet.ByteArray:
		return "BYTE_ARRAY"
	case parquet.FixedLenByteArray:
		return "FIXED_LEN_BYTE_ARRAY"
	default:
		return "UNKNOWN"
	}
}

func isNumeric(physical string) bool {
	switch physical {
	case "BOOLEAN", "INT32", "INT64", "FLOAT", "DOUBLE":
		return true
	}
	return false
}

// String renders a one line summary of the column.
func (s SchemaInfo) String() string {
	shape := "scalar"
	if s.Jagged {
		shape = "jagged"
	}
	return fmt.Sprintf("%s %s %s", s.Name, s.PhysicalType, shape)
}
