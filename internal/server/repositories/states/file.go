package states

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/qubicboard/internal/common"
	"github.com/dmitrijs2005/qubicboard/internal/models"
)

const (
	fileNamePrefix = "user_"
	fileNameSuffix = ".json"
)

// FileRepository stores one pretty-printed JSON file per identity inside a
// data directory, named "user_<safeID>.json".
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{dir: dir}
}

func (r *FileRepository) path(identity string) string {
	return filepath.Join(r.dir, fileNamePrefix+SafeID(identity)+fileNameSuffix)
}

func (r *FileRepository) Load(ctx context.Context, identity string) (*models.UserState, error) {
	data, err := os.ReadFile(r.path(identity))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	state, err := models.Merge(data)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}
	return state, nil
}

func (r *FileRepository) Save(ctx context.Context, identity string, state *models.UserState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := os.WriteFile(r.path(identity), data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, identity string) error {
	err := os.Remove(r.path(identity))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}

// List returns the safe IDs of all stored states, derived from file names.
func (r *FileRepository) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, fileNamePrefix) || !strings.HasSuffix(name, fileNameSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, fileNamePrefix), fileNameSuffix))
	}
	return ids, nil
}
