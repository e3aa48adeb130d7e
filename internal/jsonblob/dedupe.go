package jsonblob

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/DavidRicoCodes/AmarisoftAPI/internal/core"
)

// Dedupe drops array elements whose canonical form was already seen. The
// canonical form is the element re-encoded with object keys sorted, so key
// order does not matter; numbers keep their literal text. Survivors keep
// their first-occurrence order and original key order, and the array is
// re-indented with two spaces.
func Dedupe(data []byte) (out []byte, total, unique int, err error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, 0, 0, fmt.Errorf("%w: %w", core.ErrNotJSONArray, err)
	}
	if elems == nil {
		return nil, 0, 0, fmt.Errorf("%w: got null", core.ErrNotJSONArray)
	}

	seen := make(map[string]struct{}, len(elems))
	kept := make([]json.RawMessage, 0, len(elems))
	for _, e := range elems {
		key, err := canonical(e)
		if err != nil {
			return nil, 0, 0, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, e)
	}

	var buf bytes.Buffer
	if len(kept) == 0 {
		buf.WriteString("[]")
		return buf.Bytes(), len(elems), 0, nil
	}
	buf.WriteString("[\n")
	for i, e := range kept {
		buf.WriteString("  ")
		if err := json.Indent(&buf, e, "  ", "  "); err != nil {
			return nil, 0, 0, err
		}
		if i < len(kept)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("]")
	return buf.Bytes(), len(elems), len(kept), nil
}

func canonical(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// DedupeFile rewrites path in place with duplicates removed.
func DedupeFile(path string) (total, unique int, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", core.ErrInputUnreadable, err)
	}
	out, total, unique, err := Dedupe(data)
	if err != nil {
		return 0, 0, err
	}
	if err := os.WriteFile(path, out, info.Mode().Perm()); err != nil {
		return total, unique, err
	}
	return total, unique, nil
}
