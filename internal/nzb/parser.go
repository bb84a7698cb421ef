package nzb

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

func Parse(r io.Reader) (*Model, error) {
	var model Model
	decoder := xml.NewDecoder(r)
	// NZBs in the wild declare all sorts of encodings; the fields we read are ASCII
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := decoder.Decode(&model); err != nil {
		return nil, fmt.Errorf("invalid nzb: %w", err)
	}
	return &model, nil
}

func ParseFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
