// internal/catalog/file.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jason-s-yu/cricket-auction/internal/models"
)

// FileSource reads a JSON array of records from disk on every Load.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]*models.Cricketer, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode catalog file %s: %w", s.Path, err)
	}
	return FromRecords(records), nil
}
