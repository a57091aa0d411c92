package domain

import (
	"encoding/xml"

	"github.com/aretw0/orchard/pkg/datamodel"
)

// MarshalXML writes the action in its persisted form. External tooling depends on the
// attribute order and on the child order: data model reference, data set, parameters.
func (a *Action) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = xml.Name{Local: "Action"}
	start.Attr = nil

	attrs := []struct{ name, value string }{
		{"name", a.Name},
		{"ref", a.Ref},
		{"method", a.Method},
		{"property", a.Property},
		{"setXpath", a.SetXpath},
		{"valueXpath", a.ValueXpath},
		{"type", string(a.Kind)},
		{"when", a.When},
		{"publisher", a.Publisher},
		{"onStart", a.OnStart},
		{"onComplete", a.OnComplete},
	}
	for _, attr := range attrs {
		if attr.value != "" {
			start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: attr.name}, Value: attr.value})
		}
	}

	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if a.template != nil {
		if err := encodeModelRef(e, a.template); err != nil {
			return err
		}
	}
	if a.DataSet != nil {
		if err := e.Encode(a.DataSet); err != nil {
			return err
		}
	}
	for _, p := range a.Parameters {
		if err := e.Encode(p); err != nil {
			return err
		}
	}
	if a.Result != nil && a.Result.template != nil {
		if err := e.Encode(a.Result); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// MarshalXML writes a parameter as <Param name type> holding its data model reference.
func (p *ActionParameter) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "Param"}}
	if p.Name != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "name"}, Value: p.Name})
	}
	if p.Type != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: p.Type})
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if p.template != nil {
		if err := encodeModelRef(e, p.template); err != nil {
			return err
		}
	}
	if p.DataSet != nil {
		if err := e.Encode(p.DataSet); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// MarshalXML writes the result as <Result> holding its data model reference.
func (r *ActionResult) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "Result"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if r.template != nil {
		if err := encodeModelRef(e, r.template); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type xmlDataField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type xmlDataSet struct {
	XMLName   xml.Name       `xml:"Data"`
	Name      string         `xml:"name,attr,omitempty"`
	FileNames []string       `xml:"File>fileName"`
	Fields    []xmlDataField `xml:"Field"`
}

// MarshalXML writes the data set inline as <Data> with its files and fields.
func (d *DataSet) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	out := xmlDataSet{Name: d.Name, FileNames: d.FileNames}
	for _, f := range d.Fields {
		out.Fields = append(out.Fields, xmlDataField(f))
	}
	return e.Encode(out)
}

func encodeModelRef(e *xml.Encoder, m *datamodel.DataModel) error {
	ref := m.Ref
	if ref == "" {
		ref = m.Name()
	}
	return e.Encode(struct {
		XMLName xml.Name `xml:"DataModel"`
		Ref     string   `xml:"ref,attr"`
	}{Ref: ref})
}
