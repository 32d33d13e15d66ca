package persistence

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"fermmon/internal/models"
	"fermmon/internal/persistence/interfaces"
	"fermmon/internal/providers"
)

type FileManager struct {
	store      *models.FermentationStore
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, store *models.FermentationStore, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		store:      store,
		logger:     logger,
	}
}

// SaveToFile writes a compressed snapshot next to fileName and renames it into
// place, so a crash never leaves a truncated file behind.
func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := f.store.Snapshot()

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	f.compressor.Close()
}

// LoadFromFile restores the store from fileName. A missing file is a fresh start.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var snapshot models.Snapshot
	if err := json.Unmarshal(decompressedData, &snapshot); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != models.SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	f.store.Restore(&snapshot)
	f.logger.Infof(providers.TypeApp, "Restored %d fermentations from %s", len(snapshot.Fermentations), fileName)
	return nil
}
