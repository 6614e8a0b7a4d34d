package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/MikeMC777/storefront/internal/product"
)

// render writes v as JSON or YAML. YAML goes through JSON first so field
// names and decimal formatting match the API.
func render(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(w, string(raw))
		return err
	case "yaml", "yml":
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q (want json or yaml)", format)
}

// decodeProducts reads a YAML or JSON list of products. Like render it goes
// through JSON so the API field names apply.
func decodeProducts(r io.Reader) ([]product.Product, error) {
	var generic any
	if err := yaml.NewDecoder(r).Decode(&generic); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("no products in input")
		}
		return nil, err
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var ps []product.Product
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return ps, nil
}
