package plantuml

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

var encoding = base64.NewEncoding(alphabet).WithPadding(base64.NoPadding)

// Encode compresses text and maps it onto the PlantUML alphabet.
func Encode(text string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("create deflate writer: %w", err)
	}
	if _, err := io.WriteString(w, text); err != nil {
		return "", fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("deflate close: %w", err)
	}

	// PlantUML always emits full 4-character groups; the zero bytes are
	// ignored by the inflater because they follow the final block.
	raw := buf.Bytes()
	if rem := len(raw) % 3; rem != 0 {
		raw = append(raw, make([]byte, 3-rem)...)
	}
	return encoding.EncodeToString(raw), nil
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	raw, err := encoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode plantuml text: %w", err)
	}
	r := flate.NewReader(bytes.NewReader(raw))
	defer func() {
		_ = r.Close()
	}()
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("inflate: %w", err)
	}
	return string(out), nil
}
