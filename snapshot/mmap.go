package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/edsrzf/mmap-go"
)

// MMapWriter handles writing to memory-mapped files.
type MMapWriter struct {
	data   mmap.MMap
	offset int
}

func NewMMapWriter(data mmap.MMap) *MMapWriter {
	return &MMapWriter{data: data}
}

func (w *MMapWriter) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(w.data[w.offset:], v)
	w.offset += 4
}

func (w *MMapWriter) WriteUint8(v uint8) {
	w.data[w.offset] = v
	w.offset++
}

func (w *MMapWriter) WriteFloat64(v float64) {
	binary.LittleEndian.PutUint64(w.data[w.offset:], math.Float64bits(v))
	w.offset += 8
}

func (w *MMapWriter) WriteBytes(b []byte) {
	copy(w.data[w.offset:], b)
	w.offset += len(b)
}

func (w *MMapWriter) WriteString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.WriteBytes([]byte(s))
}

// MMapReader handles reading from memory-mapped files.
type MMapReader struct {
	data   mmap.MMap
	offset int
}

func NewMMapReader(data mmap.MMap) *MMapReader {
	return &MMapReader{data: data}
}

func (r *MMapReader) ReadUint32() uint32 {
	v := binary.LittleEndian.Uint32(r.data[r.offset:])
	r.offset += 4
	return v
}

func (r *MMapReader) ReadUint8() uint8 {
	v := r.data[r.offset]
	r.offset++
	return v
}

func (r *MMapReader) ReadFloat64() float64 {
	v := math.Float64frombits(binary.LittleEndian.Uint64(r.data[r.offset:]))
	r.offset += 8
	return v
}

func (r *MMapReader) ReadBytes(n int) []byte {
	b := make([]byte, n)
	copy(b, r.data[r.offset:r.offset+n])
	r.offset += n
	return b
}

func (r *MMapReader) ReadString() string {
	n := int(r.ReadUint32())
	return string(r.ReadBytes(n))
}

// encodedRecord pairs a record with its pre-marshaled metadata so the file
// size can be computed before the mapping is created.
type encodedRecord struct {
	rec  MarkerRecord
	meta [][2][]byte
}

func encodeRecords(records []MarkerRecord) ([]encodedRecord, int, error) {
	size := 4 // record count
	encoded := make([]encodedRecord, len(records))

	for i, r := range records {
		e := encodedRecord{rec: r}
		size += 4 + len(r.Handle)
		size += 8 + 8 // lat, lng
		size += 4 + len(r.Icon)
		size += 4 + len(r.Title)
		size += 1 // visible
		size += 4 // metadata count

		for k, v := range r.Metadata {
			valueBytes, err := json.Marshal(v)
			if err != nil {
				return nil, 0, fmt.Errorf("failed to marshal metadata value: %v", err)
			}
			e.meta = append(e.meta, [2][]byte{[]byte(k), valueBytes})
			size += 4 + len(k) + 4 + len(valueBytes)
		}
		encoded[i] = e
	}
	return encoded, size, nil
}

// SaveMMap writes records to an uncompressed memory-mapped snapshot. It
// trades file size for load speed compared to SaveCompressed.
func SaveMMap(filename string, records []MarkerRecord) error {
	encoded, size, err := encodeRecords(records)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	if err := file.Truncate(int64(size)); err != nil {
		return fmt.Errorf("failed to size file: %v", err)
	}

	data, err := mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("failed to map file: %v", err)
	}
	defer data.Unmap()

	w := NewMMapWriter(data)
	w.WriteUint32(uint32(len(encoded)))
	for _, e := range encoded {
		w.WriteString(e.rec.Handle)
		w.WriteFloat64(e.rec.Lat)
		w.WriteFloat64(e.rec.Lng)
		w.WriteString(e.rec.Icon)
		w.WriteString(e.rec.Title)
		if e.rec.Visible {
			w.WriteUint8(1)
		} else {
			w.WriteUint8(0)
		}
		w.WriteUint32(uint32(len(e.meta)))
		for _, kv := range e.meta {
			w.WriteUint32(uint32(len(kv[0])))
			w.WriteBytes(kv[0])
			w.WriteUint32(uint32(len(kv[1])))
			w.WriteBytes(kv[1])
		}
	}

	if err := data.Flush(); err != nil {
		return fmt.Errorf("failed to flush mapping: %v", err)
	}
	return nil
}

// LoadMMap reads records from a memory-mapped snapshot.
func LoadMMap(filename string) ([]MarkerRecord, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}
	defer file.Close()

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to map file: %v", err)
	}
	defer data.Unmap()

	r := NewMMapReader(data)
	count := r.ReadUint32()

	records := make([]MarkerRecord, count)
	for i := range records {
		rec := MarkerRecord{
			Handle: r.ReadString(),
			Lat:    r.ReadFloat64(),
			Lng:    r.ReadFloat64(),
			Icon:   r.ReadString(),
			Title:  r.ReadString(),
		}
		rec.Visible = r.ReadUint8() == 1

		metaCount := r.ReadUint32()
		if metaCount > 0 {
			rec.Metadata = make(map[string]interface{}, metaCount)
			for j := uint32(0); j < metaCount; j++ {
				key := r.ReadString()
				valueBytes := r.ReadBytes(int(r.ReadUint32()))
				var value interface{}
				if err := json.Unmarshal(valueBytes, &value); err != nil {
					return nil, fmt.Errorf("failed to unmarshal metadata value: %v", err)
				}
				rec.Metadata[key] = value
			}
		}
		records[i] = rec
	}
	return records, nil
}
