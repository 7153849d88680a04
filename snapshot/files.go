package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Info describes a snapshot file on disk.
type Info struct {
	ID         string    `json:"id"`
	NumMarkers int       `json:"numMarkers"`
	Timestamp  time.Time `json:"timestamp"`
	FileSize   int64     `json:"fileSize"`
}

// GenerateFilename builds a snapshot path encoding marker count, timestamp,
// and a short unique id.
// Format: layer-{numMarkers}m-{timestamp}-{id}.zst
func GenerateFilename(dir string, numMarkers int) string {
	timestamp := time.Now().Format("20060102-150405")
	id := uuid.New().String()[:8]
	return filepath.Join(dir, fmt.Sprintf("layer-%dm-%s-%s.zst", numMarkers, timestamp, id))
}

// List returns the snapshots in dir, newest first.
func List(dir string) ([]Info, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	snapshots := make([]Info, 0)
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".zst" {
			continue
		}
		info, err := parseFilename(file.Name())
		if err != nil {
			continue
		}
		if fi, err := file.Info(); err == nil {
			info.FileSize = fi.Size()
		}
		snapshots = append(snapshots, info)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp.After(snapshots[j].Timestamp)
	})
	return snapshots, nil
}

// FindByID resolves a snapshot id to its file path.
func FindByID(dir, id string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, file := range files {
		if !file.IsDir() && strings.Contains(file.Name(), id) {
			return filepath.Join(dir, file.Name()), nil
		}
	}
	return "", fmt.Errorf("snapshot with ID %s not found", id)
}

func parseFilename(name string) (Info, error) {
	name = strings.TrimSuffix(name, ".zst")
	parts := strings.Split(name, "-")
	if len(parts) != 5 || parts[0] != "layer" {
		return Info{}, fmt.Errorf("invalid snapshot filename %q", name)
	}

	numMarkers, err := strconv.Atoi(strings.TrimSuffix(parts[1], "m"))
	if err != nil {
		return Info{}, fmt.Errorf("invalid marker count in %q: %v", name, err)
	}
	timestamp, err := time.Parse("20060102-150405", parts[2]+"-"+parts[3])
	if err != nil {
		return Info{}, fmt.Errorf("invalid timestamp in %q: %v", name, err)
	}

	return Info{ID: parts[4], NumMarkers: numMarkers, Timestamp: timestamp}, nil
}
