package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type printer struct {
	w    io.Writer
	json *json.Encoder
}

func newPrinter(w io.Writer, format string) *printer {
	p := &printer{w: w}
	if format == outputJSON {
		p.json = json.NewEncoder(w)
	}
	return p
}

func writeOne[T any](p *printer, v T, text func(T) string) error {
	if p.json != nil {
		return p.json.Encode(v)
	}
	_, err := fmt.Fprintln(p.w, text(v))
	return err
}

// writeBatch prints a batch as one JSON array or one tab-separated line.
func writeBatch[T any](p *printer, batch []T, text func(T) string) error {
	if p.json != nil {
		return p.json.Encode(batch)
	}
	parts := make([]string, len(batch))
	for i, v := range batch {
		parts[i] = text(v)
	}
	_, err := fmt.Fprintln(p.w, strings.Join(parts, "\t"))
	return err
}
