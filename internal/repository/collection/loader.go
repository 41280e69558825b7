package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/digital-hub-ai/hubsearch/internal/domain/document"
	"github.com/digital-hub-ai/hubsearch/internal/logger"
)

// Loader reads content items from JSON files under a directory tree.
// Each file holds either a single item or an array of items. Items that
// fail validation are skipped with a warning so one bad record cannot
// take the whole collection down.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load(ctx context.Context) ([]document.Document, error) {
	log := logger.FromContext(ctx)

	var docs []document.Document
	seen := make(map[string]string)

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		dtos, err := readFile(path)
		if err != nil {
			log.Warn("skipping unreadable content file", zap.String("path", path), zap.Error(err))
			return nil
		}

		for i := range dtos {
			doc, err := dtos[i].toDomain()
			if err != nil {
				log.Warn("skipping invalid content item",
					zap.String("path", path),
					zap.String("id", dtos[i].ID),
					zap.Error(err))
				continue
			}
			if prev, ok := seen[doc.ID()]; ok {
				log.Warn("skipping duplicate content id",
					zap.String("id", doc.ID()),
					zap.String("path", path),
					zap.String("first_seen", prev))
				continue
			}
			seen[doc.ID()] = path
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content dir %s: %w", l.dir, err)
	}

	return docs, nil
}

// readFile accepts both a single JSON object and a JSON array of objects.
func readFile(path string) ([]documentDTO, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimLeftFunc(string(raw), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if strings.HasPrefix(trimmed, "[") {
		var dtos []documentDTO
		if err := json.Unmarshal(raw, &dtos); err != nil {
			return nil, err
		}
		return dtos, nil
	}

	var dto documentDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return nil, err
	}
	return []documentDTO{dto}, nil
}
