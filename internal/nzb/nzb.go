package nzb

import (
	"encoding/xml"
	"strings"
)

type Model struct {
	XMLName xml.Name `xml:"nzb"`
	Meta    []Meta   `xml:"head>meta"`
	Files   []File   `xml:"file"`
}

type Meta struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type File struct {
	Subject  string    `xml:"subject,attr"`
	Poster   string    `xml:"poster,attr"`
	Groups   []string  `xml:"groups>group"`
	Segments []Segment `xml:"segments>segment"`
}

type Segment struct {
	XMLName   xml.Name `xml:"segment"`
	Number    int      `xml:"number,attr"`
	Bytes     int64    `xml:"bytes,attr"`
	MessageID string   `xml:",chardata"`
}

// MetaValues returns every <meta type="typ"> value in the head.
func (m *Model) MetaValues(typ string) []string {
	var out []string
	for _, meta := range m.Meta {
		if strings.EqualFold(meta.Type, typ) {
			if v := strings.TrimSpace(meta.Value); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func (f *File) TotalSize() int64 {
	var total int64
	for _, s := range f.Segments {
		total += s.Bytes
	}
	return total
}
