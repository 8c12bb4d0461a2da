// Package snapshot stores row-set snapshots as XML, in files or in a KV
// store.
//
// A document looks like:
//
//	<rowset version="1">
//	  <properties>
//	    <table-name>users</table-name>
//	    <scrollable>true</scrollable>
//	    <position>2</position>
//	    <key-index>1</key-index>
//	    ...
//	  </properties>
//	  <metadata>
//	    <column name="id" type="INTEGER" nullable="false"/>
//	  </metadata>
//	  <data>
//	    <row updated="true">
//	      <col changed="true">
//	        <original type="string">ann</original>
//	        <current type="string">anna</current>
//	      </col>
//	    </row>
//	  </data>
//	</rowset>
//
// Every value carries its type so it reads back as the same Go type.
package snapshot

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/antchfx/xmlquery"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/rowset"
)

// ErrMalformed is returned when a document is not a valid snapshot.
var ErrMalformed = errors.New("malformed snapshot")

const formatVersion = "1"

// Value type names. Numeric values are tagged with their exact Go type.
const (
	typeNull    = "null"
	typeString  = "string"
	typeInt     = "int"
	typeInt8    = "int8"
	typeInt16   = "int16"
	typeInt32   = "int32"
	typeInt64   = "int64"
	typeUint    = "uint"
	typeUint8   = "uint8"
	typeUint16  = "uint16"
	typeUint32  = "uint32"
	typeUint64  = "uint64"
	typeFloat32 = "float32"
	typeFloat64 = "float64"
	typeBool    = "bool"
	typeBytes   = "bytes"
	typeTime    = "time"
)

// encodingBase64 marks a string value that XML cannot carry as text.
const encodingBase64 = "base64"

type xmlRowSet struct {
	XMLName    xml.Name      `xml:"rowset"`
	Version    string        `xml:"version,attr"`
	Properties xmlProperties `xml:"properties"`
	Columns    []xmlColumn   `xml:"metadata>column"`
	Rows       []xmlRow      `xml:"data>row"`
}

type xmlProperties struct {
	TableName    string   `xml:"table-name"`
	ReadOnly     bool     `xml:"read-only"`
	Scrollable   bool     `xml:"scrollable"`
	ShowDeleted  bool     `xml:"show-deleted"`
	PageSize     int      `xml:"page-size"`
	MaxRows      int      `xml:"max-rows"`
	SyncProvider string   `xml:"sync-provider,omitempty"`
	Position     int      `xml:"position"`
	KeyIndexes   []int    `xml:"key-index"`
	KeyNames     []string `xml:"key-name"`
}

type xmlColumn struct {
	Name      string    `xml:"name,attr"`
	Label     string    `xml:"label,attr,omitempty"`
	Table     string    `xml:"table,attr,omitempty"`
	Type      string    `xml:"type,attr"`
	Nullable  bool      `xml:"nullable,attr"`
	Precision int       `xml:"precision,attr,omitempty"`
	Scale     int       `xml:"scale,attr,omitempty"`
	Default   *xmlValue `xml:"default,omitempty"`
}

type xmlRow struct {
	Inserted bool     `xml:"inserted,attr,omitempty"`
	Updated  bool     `xml:"updated,attr,omitempty"`
	Deleted  bool     `xml:"deleted,attr,omitempty"`
	Cols     []xmlCol `xml:"col"`
}

type xmlCol struct {
	Changed  bool     `xml:"changed,attr,omitempty"`
	Original xmlValue `xml:"original"`
	Current  xmlValue `xml:"current"`
}

type xmlValue struct {
	Type     string `xml:"type,attr"`
	Encoding string `xml:"encoding,attr,omitempty"`
	Text     string `xml:",chardata"`
}

// Write encodes snap as an indented XML document.
func Write(w io.Writer, snap *rowset.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: nil snapshot", ErrMalformed)
	}
	p := snap.Properties
	doc := xmlRowSet{
		Version: formatVersion,
		Properties: xmlProperties{
			TableName:    p.TableName,
			ReadOnly:     p.ReadOnly,
			Scrollable:   p.Scrollable,
			ShowDeleted:  p.ShowDeleted,
			PageSize:     p.PageSize,
			MaxRows:      p.MaxRows,
			SyncProvider: p.SyncProvider,
			Position:     snap.Position,
			KeyIndexes:   p.KeyIndexes,
			KeyNames:     p.KeyNames,
		},
	}

	for _, col := range snap.Columns {
		xc := xmlColumn{
			Name:      col.Name,
			Label:     col.Label,
			Table:     col.TableName,
			Type:      col.Type,
			Nullable:  col.Nullable,
			Precision: col.Precision,
			Scale:     col.Scale,
		}
		if col.Default != nil {
			v, err := encodeValue(col.Default)
			if err != nil {
				return fmt.Errorf("column %s default: %w", col.Name, err)
			}
			xc.Default = &v
		}
		doc.Columns = append(doc.Columns, xc)
	}

	for i, row := range snap.Rows {
		if len(row.Original) != len(row.Current) {
			return fmt.Errorf("%w: row %d has %d original and %d current values",
				ErrMalformed, i+1, len(row.Original), len(row.Current))
		}
		xr := xmlRow{Inserted: row.Inserted, Updated: row.Updated, Deleted: row.Deleted}
		for c := range row.Current {
			original, err := encodeValue(row.Original[c])
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i+1, c+1, err)
			}
			current, err := encodeValue(row.Current[c])
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i+1, c+1, err)
			}
			xr.Cols = append(xr.Cols, xmlCol{
				Changed:  c < len(row.Changed) && row.Changed[c],
				Original: original,
				Current:  current,
			})
		}
		doc.Rows = append(doc.Rows, xr)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// encodeValue tags v with its Go type. Strings that are not valid XML text
// are stored base64 encoded. Types with no snapshot form are rejected.
func encodeValue(v interface{}) (xmlValue, error) {
	switch t := v.(type) {
	case nil:
		return xmlValue{Type: typeNull}, nil
	case string:
		if !xmlText(t) {
			return xmlValue{Type: typeString, Encoding: encodingBase64, Text: base64.StdEncoding.EncodeToString([]byte(t))}, nil
		}
		return xmlValue{Type: typeString, Text: t}, nil
	case int:
		return xmlValue{Type: typeInt, Text: strconv.FormatInt(int64(t), 10)}, nil
	case int8:
		return xmlValue{Type: typeInt8, Text: strconv.FormatInt(int64(t), 10)}, nil
	case int16:
		return xmlValue{Type: typeInt16, Text: strconv.FormatInt(int64(t), 10)}, nil
	case int32:
		return xmlValue{Type: typeInt32, Text: strconv.FormatInt(int64(t), 10)}, nil
	case int64:
		return xmlValue{Type: typeInt64, Text: strconv.FormatInt(t, 10)}, nil
	case uint:
		return xmlValue{Type: typeUint, Text: strconv.FormatUint(uint64(t), 10)}, nil
	case uint8:
		return xmlValue{Type: typeUint8, Text: strconv.FormatUint(uint64(t), 10)}, nil
	case uint16:
		return xmlValue{Type: typeUint16, Text: strconv.FormatUint(uint64(t), 10)}, nil
	case uint32:
		return xmlValue{Type: typeUint32, Text: strconv.FormatUint(uint64(t), 10)}, nil
	case uint64:
		return xmlValue{Type: typeUint64, Text: strconv.FormatUint(t, 10)}, nil
	case float32:
		return xmlValue{Type: typeFloat32, Text: strconv.FormatFloat(float64(t), 'g', -1, 32)}, nil
	case float64:
		return xmlValue{Type: typeFloat64, Text: strconv.FormatFloat(t, 'g', -1, 64)}, nil
	case bool:
		return xmlValue{Type: typeBool, Text: strconv.FormatBool(t)}, nil
	case []byte:
		return xmlValue{Type: typeBytes, Text: base64.StdEncoding.EncodeToString(t)}, nil
	case time.Time:
		return xmlValue{Type: typeTime, Text: t.Format(time.RFC3339Nano)}, nil
	default:
		return xmlValue{}, fmt.Errorf("%w: unsupported value type %T", ErrMalformed, v)
	}
}

// xmlText reports whether s survives a round trip as XML character data.
func xmlText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}

// Read parses a document written by Write.
func Read(r io.Reader) (*rowset.Snapshot, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := xmlquery.FindOne(doc, "/rowset")
	if root == nil {
		return nil, fmt.Errorf("%w: no rowset element", ErrMalformed)
	}
	if v := root.SelectAttr("version"); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrMalformed, v)
	}

	snap := &rowset.Snapshot{}
	if err := readProperties(root, snap); err != nil {
		return nil, err
	}
	if err := readColumns(root, snap); err != nil {
		return nil, err
	}
	if err := readRows(root, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func readProperties(root *xmlquery.Node, snap *rowset.Snapshot) error {
	props := root.SelectElement("properties")
	if props == nil {
		return fmt.Errorf("%w: no properties element", ErrMalformed)
	}
	p := &snap.Properties
	p.TableName = text(props, "table-name")
	p.SyncProvider = text(props, "sync-provider")

	var err error
	if p.ReadOnly, err = boolElem(props, "read-only"); err != nil {
		return err
	}
	if p.Scrollable, err = boolElem(props, "scrollable"); err != nil {
		return err
	}
	if p.ShowDeleted, err = boolElem(props, "show-deleted"); err != nil {
		return err
	}
	if p.PageSize, err = intElem(props, "page-size"); err != nil {
		return err
	}
	if p.MaxRows, err = intElem(props, "max-rows"); err != nil {
		return err
	}
	if snap.Position, err = intElem(props, "position"); err != nil {
		return err
	}

	for _, n := range props.SelectElements("key-index") {
		idx, err := strconv.Atoi(n.InnerText())
		if err != nil {
			return fmt.Errorf("%w: key-index: %v", ErrMalformed, err)
		}
		p.KeyIndexes = append(p.KeyIndexes, idx)
	}
	for _, n := range props.SelectElements("key-name") {
		p.KeyNames = append(p.KeyNames, n.InnerText())
	}
	return nil
}

func readColumns(root *xmlquery.Node, snap *rowset.Snapshot) error {
	for i, n := range xmlquery.Find(root, "metadata/column") {
		col := columnFromAttrs(n)
		if col.Name == "" {
			return fmt.Errorf("%w: column %d has no name", ErrMalformed, i+1)
		}
		var err error
		if col.Nullable, err = parseBool(n.SelectAttr("nullable")); err != nil {
			return fmt.Errorf("%w: column %s: %v", ErrMalformed, col.Name, err)
		}
		if col.Precision, err = optionalInt(n.SelectAttr("precision")); err != nil {
			return fmt.Errorf("%w: column %s: %v", ErrMalformed, col.Name, err)
		}
		if col.Scale, err = optionalInt(n.SelectAttr("scale")); err != nil {
			return fmt.Errorf("%w: column %s: %v", ErrMalformed, col.Name, err)
		}
		if def := n.SelectElement("default"); def != nil {
			if col.Default, err = decodeValue(def); err != nil {
				return fmt.Errorf("column %s default: %w", col.Name, err)
			}
		}
		snap.Columns = append(snap.Columns, col)
	}
	return nil
}

func readRows(root *xmlquery.Node, snap *rowset.Snapshot) error {
	width := len(snap.Columns)
	for i, n := range xmlquery.Find(root, "data/row") {
		row := rowset.SnapshotRow{
			Inserted: n.SelectAttr("inserted") == "true",
			Updated:  n.SelectAttr("updated") == "true",
			Deleted:  n.SelectAttr("deleted") == "true",
		}
		cols := n.SelectElements("col")
		if len(cols) != width {
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrMalformed, i+1, len(cols), width)
		}
		for c, cn := range cols {
			original, err := decodeChild(cn, "original")
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i+1, c+1, err)
			}
			current, err := decodeChild(cn, "current")
			if err != nil {
				return fmt.Errorf("row %d column %d: %w", i+1, c+1, err)
			}
			row.Original = append(row.Original, original)
			row.Current = append(row.Current, current)
			row.Changed = append(row.Changed, cn.SelectAttr("changed") == "true")
		}
		snap.Rows = append(snap.Rows, row)
	}
	return nil
}

func decodeChild(n *xmlquery.Node, name string) (interface{}, error) {
	child := n.SelectElement(name)
	if child == nil {
		return nil, fmt.Errorf("%w: missing %s value", ErrMalformed, name)
	}
	return decodeValue(child)
}

func decodeValue(n *xmlquery.Node) (interface{}, error) {
	s := n.InnerText()
	var (
		v   interface{}
		err error
	)
	switch t := n.SelectAttr("type"); t {
	case typeNull:
		return nil, nil
	case typeString:
		if n.SelectAttr("encoding") != encodingBase64 {
			return s, nil
		}
		var b []byte
		if b, err = base64.StdEncoding.DecodeString(s); err == nil {
			v = string(b)
		}
	case typeInt:
		var i int64
		if i, err = strconv.ParseInt(s, 10, strconv.IntSize); err == nil {
			v = int(i)
		}
	case typeInt8:
		var i int64
		if i, err = strconv.ParseInt(s, 10, 8); err == nil {
			v = int8(i)
		}
	case typeInt16:
		var i int64
		if i, err = strconv.ParseInt(s, 10, 16); err == nil {
			v = int16(i)
		}
	case typeInt32:
		var i int64
		if i, err = strconv.ParseInt(s, 10, 32); err == nil {
			v = int32(i)
		}
	case typeInt64:
		v, err = strconv.ParseInt(s, 10, 64)
	case typeUint:
		var u uint64
		if u, err = strconv.ParseUint(s, 10, strconv.IntSize); err == nil {
			v = uint(u)
		}
	case typeUint8:
		var u uint64
		if u, err = strconv.ParseUint(s, 10, 8); err == nil {
			v = uint8(u)
		}
	case typeUint16:
		var u uint64
		if u, err = strconv.ParseUint(s, 10, 16); err == nil {
			v = uint16(u)
		}
	case typeUint32:
		var u uint64
		if u, err = strconv.ParseUint(s, 10, 32); err == nil {
			v = uint32(u)
		}
	case typeUint64:
		v, err = strconv.ParseUint(s, 10, 64)
	case typeFloat32:
		var f float64
		if f, err = strconv.ParseFloat(s, 32); err == nil {
			v = float32(f)
		}
	case typeFloat64:
		v, err = strconv.ParseFloat(s, 64)
	case typeBool:
		v, err = strconv.ParseBool(s)
	case typeBytes:
		v, err = base64.StdEncoding.DecodeString(s)
	case typeTime:
		v, err = time.Parse(time.RFC3339Nano, s)
	default:
		return nil, fmt.Errorf("%w: unknown value type %q", ErrMalformed, t)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return v, nil
}

func columnFromAttrs(n *xmlquery.Node) core.Column {
	return core.Column{
		Name:      n.SelectAttr("name"),
		Label:     n.SelectAttr("label"),
		TableName: n.SelectAttr("table"),
		Type:      n.SelectAttr("type"),
	}
}

func text(parent *xmlquery.Node, name string) string {
	if n := parent.SelectElement(name); n != nil {
		return n.InnerText()
	}
	return ""
}

func boolElem(parent *xmlquery.Node, name string) (bool, error) {
	b, err := parseBool(text(parent, name))
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return b, nil
}

func intElem(parent *xmlquery.Node, name string) (int, error) {
	i, err := optionalInt(text(parent, name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
	}
	return i, nil
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}

func optionalInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
