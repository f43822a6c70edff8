// Package backup provides memory backup and restore as gzipped tar archives.
// An archive taken from one backend restores into the other.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joss/domem/internal/logging"
	"github.com/joss/domem/internal/memory"
)

// FormatVersion is written into every archive's metadata.
const FormatVersion = "1.0"

const metadataFile = "metadata.json"

// Archive members, one per table.
const (
	SessionsFile     = "sessions.json"
	ObservationsFile = "observations.json"
	SummariesFile    = "summaries.json"
	PlansFile        = "plans.json"
)

// Metadata describes an archive.
type Metadata struct {
	Version       string         `json:"version"`
	CreatedAt     time.Time      `json:"created_at"`
	Backend       string         `json:"backend"`
	SchemaVersion int            `json:"schema_version"`
	Description   string         `json:"description,omitempty"`
	Counts        map[string]int `json:"counts"`
}

// Manager handles backup operations against one store.
type Manager struct {
	store *memory.Store
	now   func() time.Time
	log   *logging.Logger
}

// NewManager creates a backup manager.
func NewManager(store *memory.Store) *Manager {
	return &Manager{
		store: store,
		now:   time.Now,
		log:   logging.New("backup").WithBackend(store.Adapter().Backend()),
	}
}

// Export writes every memory table to a compressed archive at outputPath.
// The archive is written to a temporary file next to outputPath and renamed
// into place, so a failed export never leaves a partial archive behind.
func (m *Manager) Export(ctx context.Context, outputPath, description string) (_ *Metadata, err error) {
	start := time.Now()

	snap, err := m.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	version, err := m.store.Adapter().CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	file, err := os.CreateTemp(filepath.Dir(outputPath), ".domem-backup-*")
	if err != nil {
		return nil, fmt.Errorf("creating backup file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
		}
	}()

	meta := &Metadata{
		Version:       FormatVersion,
		CreatedAt:     m.now().UTC(),
		Backend:       m.store.Adapter().Backend(),
		SchemaVersion: version,
		Description:   description,
		Counts: map[string]int{
			"sessions":     len(snap.Sessions),
			"observations": len(snap.Observations),
			"summaries":    len(snap.Summaries),
			"plans":        len(snap.Plans),
		},
	}

	if err = writeArchive(file, meta, snap); err != nil {
		return nil, err
	}
	if err = file.Close(); err != nil {
		return nil, fmt.Errorf("closing backup file: %w", err)
	}
	if err = os.Rename(file.Name(), outputPath); err != nil {
		return nil, fmt.Errorf("moving backup into place: %w", err)
	}

	m.log.TimedEvent("backup_exported", start, map[string]interface{}{
		"path":   outputPath,
		"counts": meta.Counts,
	})
	return meta, nil
}

// Import restores an archive. With replace the current contents are
// dropped first; otherwise the archive is merged and sessions that already
// exist are kept as they are.
func (m *Manager) Import(ctx context.Context, inputPath string, replace bool) (*Metadata, memory.RestoreStats, error) {
	start := time.Now()

	meta, snap, err := readArchive(inputPath)
	if err != nil {
		return nil, memory.RestoreStats{}, err
	}

	stats, err := m.store.Restore(ctx, snap, replace)
	if err != nil {
		return meta, stats, fmt.Errorf("restoring %s: %w", inputPath, err)
	}

	m.log.TimedEvent("backup_imported", start, map[string]interface{}{
		"path":    inputPath,
		"replace": replace,
		"skipped": stats.Skipped,
	})
	return meta, stats, nil
}

// List shows the metadata of a backup without importing.
func (m *Manager) List(inputPath string) (*Metadata, error) {
	meta, _, err := readArchive(inputPath)
	return meta, err
}

func writeArchive(w io.Writer, meta *Metadata, snap *memory.Snapshot) error {
	gzw := gzip.NewWriter(w)
	tw := tar.NewWriter(gzw)

	members := []struct {
		name string
		v    any
	}{
		{SessionsFile, snap.Sessions},
		{ObservationsFile, snap.Observations},
		{SummariesFile, snap.Summaries},
		{PlansFile, snap.Plans},
		{metadataFile, meta},
	}
	for _, mem := range members {
		data, err := json.MarshalIndent(mem.v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", mem.name, err)
		}
		if err := addToTar(tw, mem.name, data, meta.CreatedAt); err != nil {
			return fmt.Errorf("adding %s to tar: %w", mem.name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("closing gzip: %w", err)
	}
	return nil
}

func readArchive(inputPath string) (*Metadata, *memory.Snapshot, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening backup: %w", err)
	}
	defer file.Close()

	gzr, err := gzip.NewReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)

	var meta *Metadata
	snap := &memory.Snapshot{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading tar: %w", err)
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", header.Name, err)
		}

		var target any
		switch header.Name {
		case metadataFile:
			meta = &Metadata{}
			target = meta
		case SessionsFile:
			target = &snap.Sessions
		case ObservationsFile:
			target = &snap.Observations
		case SummariesFile:
			target = &snap.Summaries
		case PlansFile:
			target = &snap.Plans
		default:
			continue
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, nil, fmt.Errorf("parsing %s: %w", header.Name, err)
		}
	}

	if meta == nil {
		return nil, nil, fmt.Errorf("backup missing metadata")
	}
	return meta, snap, nil
}

func addToTar(tw *tar.Writer, name string, data []byte, modTime time.Time) error {
	header := &tar.Header{
		Name:    name,
		Mode:    0644,
		Size:    int64(len(data)),
		ModTime: modTime,
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err := tw.Write(data)
	return err
}
