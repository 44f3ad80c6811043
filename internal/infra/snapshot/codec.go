package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"bazaarmcp/internal/domain"
)

// encodeDataset renders a dataset the way it is persisted: two-space
// indentation and a trailing newline.
func encodeDataset(dataset domain.Dataset) ([]byte, error) {
	if !json.Valid(dataset) {
		return nil, domain.ErrInvalidDataset
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, dataset, "", "  "); err != nil {
		return nil, fmt.Errorf("indent dataset: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// decodeDataset parses stored bytes back into the compact form callers get.
func decodeDataset(key string, raw []byte) (domain.Dataset, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return domain.Dataset(buf.Bytes()), nil
}
