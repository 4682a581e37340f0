package serializer

import (
	"bytes"
	"encoding/xml"
	"strings"

	"areagroup/internal/models"
)

const (
	// Declaration is written before the root element.
	Declaration = `<?xml version="1.0" encoding="utf-8"?>`
	// RootElement wraps every group.
	RootElement = "root"
	// KeyAttr carries the original key of an element whose name was rewritten.
	KeyAttr = "key"
)

// XML renders the tree as group, record and field elements under <root>.
type XML struct{}

// Format returns "xml".
func (XML) Format() string { return FormatXML }

// Marshal renders tree. Element names are the group keys, record keys and
// field names; field values become escaped text content. A key that is not a
// valid XML name is rewritten by ElementName and kept in a key attribute.
func (XML) Marshal(tree models.OutputTree) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Declaration)
	buf.WriteByte('\n')

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: RootElement}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	for _, gk := range sortedGroups(tree) {
		group := tree[gk]

		gStart := startElement(string(gk))
		if err := enc.EncodeToken(gStart); err != nil {
			return nil, err
		}

		for _, rk := range sortedRecords(group) {
			if err := encodeRecord(enc, string(rk), group[rk]); err != nil {
				return nil, err
			}
		}

		if err := enc.EncodeToken(gStart.End()); err != nil {
			return nil, err
		}
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

func encodeRecord(enc *xml.Encoder, key string, rec models.NormalizedRecord) error {
	start := startElement(key)
	if err := enc.EncodeToken(start); err != nil {
		return err
	}

	for _, field := range sortedFields(rec) {
		if err := enc.EncodeElement(rec[field], startElement(field)); err != nil {
			return err
		}
	}

	return enc.EncodeToken(start.End())
}

func startElement(key string) xml.StartElement {
	name := ElementName(key)
	el := xml.StartElement{Name: xml.Name{Local: name}}

	if name != key {
		el.Attr = []xml.Attr{{Name: xml.Name{Local: KeyAttr}, Value: key}}
	}

	return el
}

// ElementName maps key to a valid XML element name. Anything outside ASCII
// letters, digits, '-', '.' and '_' becomes '_', and '_' is prepended when
// the first character cannot start a name. An empty key becomes "_".
func ElementName(key string) string {
	var b strings.Builder

	for i, r := range key {
		if i == 0 && !isNameStart(r) {
			b.WriteByte('_')

			if !isNameChar(r) {
				continue
			}
		}

		if isNameChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	if b.Len() == 0 {
		return "_"
	}

	return b.String()
}

// Colons are left out so names never look namespaced.
func isNameStart(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

func isNameChar(r rune) bool {
	return isNameStart(r) || r == '-' || r == '.' || ('0' <= r && r <= '9')
}
