package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// CSVCodec marshals and unmarshals csv-tagged structs.
type CSVCodec struct{}

// NewCSVCodec builds a CSV codec.
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Render encodes a slice of csv-tagged structs, header row first.
func (c *CSVCodec) Render(records interface{}) ([]byte, error) {
	out, err := gocsv.MarshalBytes(records)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}

// Decode reads CSV rows from r into out, which must be a pointer to a slice.
func (c *CSVCodec) Decode(r io.Reader, out interface{}) error {
	if err := gocsv.Unmarshal(r, out); err != nil {
		return fmt.Errorf("unmarshal csv: %w", err)
	}
	return nil
}
