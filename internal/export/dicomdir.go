package export

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const mediaStorageDirectorySOPClass = "1.2.840.10008.1.3.10"

// seriesIndex holds the identifiers shared by every frame of an export.
type seriesIndex struct {
	PatientID string
	StudyUID  string
	StudyID   string
	SeriesUID string
}

// writeDICOMDIR indexes files in a DICOMDIR next to them. The record
// sequence is flat: one PATIENT, STUDY and SERIES record followed by one
// IMAGE record per frame.
func writeDICOMDIR(dir string, idx seriesIndex, files []WrittenFile) error {
	records := [][]*dicom.Element{
		directoryRecord("PATIENT",
			mustNewElement(tag.PatientID, []string{idx.PatientID}),
			mustNewElement(tag.PatientName, []string{patientName}),
		),
		directoryRecord("STUDY",
			mustNewElement(tag.StudyInstanceUID, []string{idx.StudyUID}),
			mustNewElement(tag.StudyID, []string{idx.StudyID}),
			mustNewElement(tag.StudyDate, []string{""}),
			mustNewElement(tag.StudyTime, []string{""}),
		),
		directoryRecord("SERIES",
			mustNewElement(tag.Modality, []string{"OT"}),
			mustNewElement(tag.SeriesInstanceUID, []string{idx.SeriesUID}),
			mustNewElement(tag.SeriesNumber, []string{"1"}),
		),
	}
	for _, f := range files {
		records = append(records, directoryRecord("IMAGE",
			mustNewElement(tag.ReferencedFileID, []string{filepath.Base(f.Path)}),
			mustNewElement(tag.ReferencedSOPClassUIDInFile, []string{secondaryCaptureSOPClass}),
			mustNewElement(tag.ReferencedSOPInstanceUIDInFile, []string{f.SOPInstanceUID}),
			mustNewElement(tag.ReferencedTransferSyntaxUIDInFile, []string{explicitVRLittleEndian}),
		))
	}

	seq, err := dicom.NewElement(tag.DirectoryRecordSequence, records)
	if err != nil {
		return fmt.Errorf("create directory record sequence: %w", err)
	}

	filesetID := idx.StudyID
	if len(filesetID) > 16 {
		filesetID = filesetID[:16]
	}
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
		mustNewElement(tag.MediaStorageSOPClassUID, []string{mediaStorageDirectorySOPClass}),
		mustNewElement(tag.MediaStorageSOPInstanceUID, []string{deterministicUID(idx.SeriesUID + "_dicomdir")}),
		mustNewElement(tag.FileSetID, []string{filesetID}),
		mustNewElement(tag.OffsetOfTheFirstDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.OffsetOfTheLastDirectoryRecordOfTheRootDirectoryEntity, []int{0}),
		mustNewElement(tag.FileSetConsistencyFlag, []int{0}),
		seq,
	}}

	path := filepath.Join(dir, "DICOMDIR")
	if err := writeDatasetToFile(path, ds); err != nil {
		return fmt.Errorf("write DICOMDIR: %w", err)
	}
	if err := fixDirectoryOffsets(path, len(records)); err != nil {
		return fmt.Errorf("update DICOMDIR offsets: %w", err)
	}
	return nil
}

func directoryRecord(recordType string, attrs ...*dicom.Element) []*dicom.Element {
	return append([]*dicom.Element{
		mustNewElement(tag.OffsetOfTheNextDirectoryRecord, []int{0}),
		mustNewElement(tag.RecordInUseFlag, []int{0xFFFF}),
		mustNewElement(tag.OffsetOfReferencedLowerLevelDirectoryEntity, []int{0}),
		mustNewElement(tag.DirectoryRecordType, []string{recordType}),
	}, attrs...)
}

// recordLinks returns the next-sibling and first-child offsets of each
// record, given their byte positions. The first three records each hold
// the next one as their only child; image records chain to each other.
func recordLinks(positions []int64) (next, lower []uint32) {
	next = make([]uint32, len(positions))
	lower = make([]uint32, len(positions))
	for i := range positions {
		if i+1 >= len(positions) {
			break
		}
		if i < 3 {
			lower[i] = uint32(positions[i+1])
		} else {
			next[i] = uint32(positions[i+1])
		}
	}
	return next, lower
}

// fixDirectoryOffsets rewrites the record offsets of a written DICOMDIR
// in place. Offsets are counted from the first byte of the file.
func fixDirectoryOffsets(path string, count int) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	seqPos := findTag(data, 0, len(data), 0x0004, 0x1220)
	if seqPos < 0 {
		return fmt.Errorf("directory record sequence not found")
	}
	positions := findItems(data, int(seqPos))
	if len(positions) < count {
		return fmt.Errorf("found %d directory records, want %d", len(positions), count)
	}
	positions = positions[:count]

	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	// Only the PATIENT record lives at the root.
	for _, t := range []uint16{0x1200, 0x1202} {
		if pos := findTag(data, 0, int(seqPos), 0x0004, t); pos >= 0 {
			if err := putUint32At(f, pos+8, uint32(positions[0])); err != nil {
				return err
			}
		}
	}

	next, lower := recordLinks(positions)
	for i, start := range positions {
		end := len(data)
		if i+1 < len(positions) {
			end = int(positions[i+1])
		}
		for _, link := range []struct {
			element uint16
			value   uint32
		}{{0x1400, next[i]}, {0x1420, lower[i]}} {
			pos := findTag(data, int(start), end, 0x0004, link.element)
			if pos < 0 {
				return fmt.Errorf("record %d: offset tag (0004,%04X) not found", i, link.element)
			}
			if err := putUint32At(f, pos+8, link.value); err != nil {
				return err
			}
		}
	}
	return f.Close()
}

// findItems returns the position of every item tag (FFFE,E000) after start.
func findItems(data []byte, start int) []int64 {
	item := []byte{0xFE, 0xFF, 0x00, 0xE0}
	var positions []int64
	for i := start; i+4 <= len(data); i++ {
		if bytes.Equal(data[i:i+4], item) {
			positions = append(positions, int64(i))
		}
	}
	return positions
}

// findTag returns the position of the little-endian tag in data[from:to],
// or -1.
func findTag(data []byte, from, to int, group, element uint16) int64 {
	var tagBytes [4]byte
	binary.LittleEndian.PutUint16(tagBytes[0:2], group)
	binary.LittleEndian.PutUint16(tagBytes[2:4], element)

	to = min(to, len(data))
	for i := from; i+4 <= to; i++ {
		if bytes.Equal(data[i:i+4], tagBytes[:]) {
			return int64(i)
		}
	}
	return -1
}

func putUint32At(f io.WriteSeeker, pos int64, value uint32) error {
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return err
	}
	return binary.Write(f, binary.LittleEndian, value)
}
