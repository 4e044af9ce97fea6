package form

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type fieldAlias Field

// MarshalJSON writes decimal values as JSON numbers.
func (f Field) MarshalJSON() ([]byte, error) {
	out := fieldAlias(f)
	if d, ok := f.Value.(decimal.Decimal); ok {
		out.Value = json.Number(d.String())
	}

	return json.Marshal(out)
}

// UnmarshalJSON reads numbers as decimals and string arrays as []string.
func (f *Field) UnmarshalJSON(data []byte) error {
	var raw struct {
		fieldAlias
		Value json.RawMessage `json:"value"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = Field(raw.fieldAlias)

	v, err := decodeValue(raw.Value)
	if err != nil {
		return fmt.Errorf("field %q: %w", f.FieldName, err)
	}

	f.Value = v

	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	switch x := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return nil, err
		}

		return d, nil
	case []any:
		list := make([]string, 0, len(x))
		for _, it := range x {
			s, ok := it.(string)
			if !ok {
				return x, nil
			}

			list = append(list, s)
		}

		return list, nil
	default:
		return v, nil
	}
}

type pageDoc struct {
	Fields []*Field `json:"fields"`
}

// MarshalJSON writes the nested page object, pages in structure order.
func (s *Structure) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, p := range s.Pages {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}

		fields := p.Fields
		if fields == nil {
			fields = []*Field{}
		}

		body, err := json.Marshal(pageDoc{Fields: fields})
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", p.Name, err)
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON reads the nested page object, keeping page order. Top-level
// members that are not page objects are ignored.
func (s *Structure) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("form structure: expected object, got %v", tok)
	}

	s.Pages = nil

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}

		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("form structure: expected page name, got %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("page %s: %w", name, err)
		}

		if len(raw) == 0 || raw[0] != '{' {
			continue
		}

		var doc pageDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("page %s: %w", name, err)
		}

		s.Pages = append(s.Pages, &Page{Name: name, Fields: doc.Fields})
	}

	_, err = dec.Token()

	return err
}
