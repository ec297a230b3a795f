package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/wippyai/hail/bridge"
)

// parseJSON decodes exactly one JSON document, keeping numbers as
// json.Number so int64 values survive.
func parseJSON(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse json: trailing data after value")
	}
	return v, nil
}

func buildFromJSON(s *bridge.Scope, spec, input string) (bridge.Handle, error) {
	th, err := s.ResolveType(spec)
	if err != nil {
		return 0, err
	}
	host, err := parseJSON(input)
	if err != nil {
		return 0, err
	}
	return s.BuildValue(th, host)
}

func printJSON(w io.Writer, b *bridge.Bridge, v bridge.Handle) error {
	host, err := b.ToHost(v)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jsonSafe(host)); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// jsonSafe replaces non-finite floats, which JSON cannot carry, with the
// strings "NaN", "+Inf" and "-Inf".
func jsonSafe(v any) any {
	switch x := v.(type) {
	case float32:
		return nonFinite(float64(x), x)
	case float64:
		return nonFinite(x, x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonSafe(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonSafe(e)
		}
		return out
	}
	return v
}

func nonFinite(f float64, orig any) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return orig
}
