// Package snapshot persists a layer's marker set to disk so large marker
// collections can be reloaded without re-ingesting them.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"web/spidermap/geo"
	"web/spidermap/provider"
)

// MarkerRecord is the serialized form of one marker.
type MarkerRecord struct {
	Handle   string
	Lat      float64
	Lng      float64
	Icon     string
	Title    string
	Visible  bool
	Metadata map[string]interface{}
}

// RecordsFromMarkers flattens markers into records. Markers without a
// position are skipped; they cannot be restored into a clustering layer.
func RecordsFromMarkers(markers []provider.Marker) []MarkerRecord {
	records := make([]MarkerRecord, 0, len(markers))
	for _, m := range markers {
		pos, ok := m.Position()
		if !ok {
			continue
		}
		meta := m.Metadata()
		records = append(records, MarkerRecord{
			Handle:   m.Handle(),
			Lat:      pos.Lat,
			Lng:      pos.Lng,
			Icon:     meta.Icon,
			Title:    meta.Title,
			Visible:  meta.Visible,
			Metadata: meta.Metadata,
		})
	}
	return records
}

// MarkersFromRecords recreates markers on the given binding.
func MarkersFromRecords(binding provider.Binding, records []MarkerRecord) []provider.Marker {
	markers := make([]provider.Marker, len(records))
	for i, r := range records {
		pos := geo.LatLng{Lat: r.Lat, Lng: r.Lng}
		markers[i] = binding.CreateMarker(provider.MarkerMetadata{
			Position: &pos,
			Icon:     r.Icon,
			Title:    r.Title,
			Visible:  r.Visible,
			Metadata: r.Metadata,
		})
	}
	return markers
}

// SaveCompressed writes records to a zstd-compressed snapshot file.
func SaveCompressed(filename string, records []MarkerRecord) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriterSize(file, 1024*1024)
	enc, err := zstd.NewWriter(bufWriter,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %v", err)
	}
	defer enc.Close()

	binary.Write(enc, binary.LittleEndian, uint32(len(records)))

	for _, r := range records {
		if err := writeRecord(enc, r); err != nil {
			return err
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %v", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %v", err)
	}
	return nil
}

// LoadCompressed reads records from a zstd-compressed snapshot file.
func LoadCompressed(filename string) ([]MarkerRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	bufReader := bufio.NewReaderSize(file, 1024*1024)
	dec, err := zstd.NewReader(bufReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %v", err)
	}
	defer dec.Close()

	var count uint32
	if err := binary.Read(dec, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("failed to read record count: %v", err)
	}

	records := make([]MarkerRecord, count)
	for i := range records {
		r, err := readRecord(dec)
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %v", i, err)
		}
		records[i] = r
	}
	return records, nil
}

func writeRecord(w io.Writer, r MarkerRecord) error {
	writeString(w, r.Handle)
	binary.Write(w, binary.LittleEndian, r.Lat)
	binary.Write(w, binary.LittleEndian, r.Lng)
	writeString(w, r.Icon)
	writeString(w, r.Title)

	visible := uint8(0)
	if r.Visible {
		visible = 1
	}
	binary.Write(w, binary.LittleEndian, visible)

	binary.Write(w, binary.LittleEndian, uint32(len(r.Metadata)))
	for k, v := range r.Metadata {
		writeString(w, k)
		valueBytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata value: %v", err)
		}
		binary.Write(w, binary.LittleEndian, uint32(len(valueBytes)))
		w.Write(valueBytes)
	}
	return nil
}

func readRecord(r io.Reader) (MarkerRecord, error) {
	var rec MarkerRecord
	var err error

	if rec.Handle, err = readString(r); err != nil {
		return rec, err
	}
	if err = binary.Read(r, binary.LittleEndian, &rec.Lat); err != nil {
		return rec, err
	}
	if err = binary.Read(r, binary.LittleEndian, &rec.Lng); err != nil {
		return rec, err
	}
	if rec.Icon, err = readString(r); err != nil {
		return rec, err
	}
	if rec.Title, err = readString(r); err != nil {
		return rec, err
	}

	var visible uint8
	if err = binary.Read(r, binary.LittleEndian, &visible); err != nil {
		return rec, err
	}
	rec.Visible = visible == 1

	var metaCount uint32
	if err = binary.Read(r, binary.LittleEndian, &metaCount); err != nil {
		return rec, err
	}
	if metaCount > 0 {
		rec.Metadata = make(map[string]interface{}, metaCount)
		for j := uint32(0); j < metaCount; j++ {
			key, err := readString(r)
			if err != nil {
				return rec, err
			}
			var valueSize uint32
			if err = binary.Read(r, binary.LittleEndian, &valueSize); err != nil {
				return rec, err
			}
			valueBytes := make([]byte, valueSize)
			if _, err = io.ReadFull(r, valueBytes); err != nil {
				return rec, err
			}
			var value interface{}
			if err = json.Unmarshal(valueBytes, &value); err != nil {
				return rec, fmt.Errorf("failed to unmarshal metadata value: %v", err)
			}
			rec.Metadata[key] = value
		}
	}
	return rec, nil
}

func writeString(w io.Writer, s string) {
	binary.Write(w, binary.LittleEndian, uint32(len(s)))
	w.Write([]byte(s))
}

func readString(r io.Reader) (string, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
