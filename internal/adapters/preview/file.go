package preview

import (
	"fmt"
	"os"
	"path/filepath"
	"retouchbot/internal/core/domain"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog/log"
)

// FileStore materializes previews as uuid-named files in a single
// directory. Releasing a handle removes its file; a released handle loads
// nothing.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "retouchbot-previews")
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("error creating preview directory: %w", err)
	}

	log.Debug().Str("dir", dir).Msg("preview store ready")

	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Create(data []byte, mime string) (domain.Preview, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return domain.Preview{}, err
	}

	log.Debug().Int("bytes", len(data)).Str("mime", mime).Msg("creating preview file")

	path := filepath.Join(s.dir, id.String()+domain.ExtensionForMIME(mime))

	f, err := os.Create(path)
	if err != nil {
		err = fmt.Errorf("error creating preview file %w", err)
		log.Error().Err(err).Send()
		return domain.Preview{}, err
	}

	defer f.Close()

	if _, err := f.Write(data); err != nil {
		err = fmt.Errorf("error writing preview file %w", err)
		log.Error().Err(err).Send()
		return domain.Preview{}, err
	}

	log.Debug().Str("path", f.Name()).Msg("created preview")

	return domain.Preview{ID: id.String(), Path: f.Name(), MIME: mime}, nil
}

func (s *FileStore) Load(preview domain.Preview) ([]byte, error) {
	buf, err := os.ReadFile(preview.Path)
	if err != nil {
		err = fmt.Errorf("error reading preview file %w", err)
		log.Error().Err(err).Send()
		return nil, err
	}

	return buf, nil
}

func (s *FileStore) Release(preview domain.Preview) {
	err := os.Remove(preview.Path)
	if err != nil {
		log.Warn().Str("path", preview.Path).Err(err).Msg("could not release preview")
		return
	}
	log.Debug().Str("path", preview.Path).Msg("released preview")
}
