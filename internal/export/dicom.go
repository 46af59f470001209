package export

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/mrsinham/calciumforge/internal/synth"
	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

const (
	// secondaryCaptureSOPClass is the Secondary Capture Image Storage SOP class.
	secondaryCaptureSOPClass = "1.2.840.10008.5.1.4.1.1.7"
	explicitVRLittleEndian   = "1.2.840.10008.1.2.1"

	patientName = "SYNTHETIC^CALCIUM"
)

// DICOMOptions controls the DICOM export.
type DICOMOptions struct {
	Workers int  // Number of parallel writers (0 = number of CPUs)
	Label   bool // Burn "Frame t/T" into the top-left corner of each image

	// ProgressCallback is called after each written frame
	ProgressCallback func(current, total int)
}

// WrittenFile describes one exported DICOM image.
type WrittenFile struct {
	Path           string
	Frame          int
	SOPInstanceUID string
}

// frameTask holds everything needed to write one frame.
type frameTask struct {
	index    int
	filePath string
	label    string
	metadata []*dicom.Element
	uid      string
}

// quantizer maps fluorescence values onto the full uint16 range. Stored
// values decode as raw*Slope + Intercept.
type quantizer struct {
	Slope     float64
	Intercept float64
}

func newQuantizer(yr []float64) quantizer {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range yr {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	slope := (hi - lo) / math.MaxUint16
	if slope <= 0 || math.IsNaN(slope) {
		slope = 1
	}
	return quantizer{Slope: slope, Intercept: lo}
}

func (q quantizer) raw(v float64) uint16 {
	r := math.Round((v - q.Intercept) / q.Slope)
	return uint16(math.Max(0, math.Min(math.MaxUint16, r)))
}

func mustNewElement(t tag.Tag, value any) *dicom.Element {
	elem, err := dicom.NewElement(t, value)
	if err != nil {
		panic(fmt.Sprintf("failed to create element %v: %v", t, err))
	}
	return elem
}

func writeDatasetToFile(filename string, ds dicom.Dataset) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return dicom.Write(f, ds)
}

// WriteDICOM writes one 16-bit secondary-capture image per frame of the
// movie into dir, named IM000001, IM000002, ..., and a DICOMDIR indexing
// them. UIDs are derived from the dataset parameters, so exports are
// reproducible.
func WriteDICOM(ctx context.Context, dir string, ds *synth.Dataset, opts DICOMOptions) ([]WrittenFile, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	dims := ds.Dims
	frames := ds.Options.Frames
	q := newQuantizer(ds.Yr.RawMatrix().Data)
	key := fmt.Sprintf("%s_n%d_t%d_seed%d", dims, ds.Options.Cells, frames, ds.Options.Seed)
	studyUID := deterministicUID(key + "_study")
	seriesUID := deterministicUID(key + "_series")
	frameOfReferenceUID := deterministicUID(key + "_frame")
	patientID := fmt.Sprintf("CF%d", ds.Options.Seed)
	frameTime := strconv.FormatFloat(1000/ds.Options.Framerate, 'f', 6, 64)

	// Phase 1: build tasks sequentially
	tasks := make([]frameTask, frames)
	for t := 0; t < frames; t++ {
		uid := deterministicUID(fmt.Sprintf("%s_frame_%d", key, t))
		tasks[t] = frameTask{
			index:    t,
			filePath: filepath.Join(dir, fmt.Sprintf("IM%06d", t+1)),
			label:    fmt.Sprintf("Frame %d/%d", t+1, frames),
			uid:      uid,
			metadata: []*dicom.Element{
				mustNewElement(tag.TransferSyntaxUID, []string{explicitVRLittleEndian}),
				mustNewElement(tag.MediaStorageSOPClassUID, []string{secondaryCaptureSOPClass}),
				mustNewElement(tag.MediaStorageSOPInstanceUID, []string{uid}),
				mustNewElement(tag.PatientName, []string{patientName}),
				mustNewElement(tag.PatientID, []string{patientID}),
				mustNewElement(tag.StudyInstanceUID, []string{studyUID}),
				mustNewElement(tag.StudyDescription, []string{"Synthetic calcium imaging"}),
				mustNewElement(tag.SeriesInstanceUID, []string{seriesUID}),
				mustNewElement(tag.SeriesNumber, []string{"1"}),
				mustNewElement(tag.SeriesDescription, []string{
					fmt.Sprintf("%d cells, %s, %d frames", ds.Options.Cells, dims, frames),
				}),
				mustNewElement(tag.Modality, []string{"OT"}),
				mustNewElement(tag.SOPClassUID, []string{secondaryCaptureSOPClass}),
				mustNewElement(tag.SOPInstanceUID, []string{uid}),
				mustNewElement(tag.InstanceNumber, []string{strconv.Itoa(t + 1)}),
				mustNewElement(tag.FrameOfReferenceUID, []string{frameOfReferenceUID}),
				mustNewElement(tag.FrameTime, []string{frameTime}),
				mustNewElement(tag.RescaleSlope, []string{strconv.FormatFloat(q.Slope, 'g', 12, 64)}),
				mustNewElement(tag.RescaleIntercept, []string{strconv.FormatFloat(q.Intercept, 'g', 12, 64)}),
				mustNewElement(tag.Rows, []int{dims.Height}),
				mustNewElement(tag.Columns, []int{dims.Width}),
				mustNewElement(tag.BitsAllocated, []int{16}),
				mustNewElement(tag.BitsStored, []int{16}),
				mustNewElement(tag.HighBit, []int{15}),
				mustNewElement(tag.PixelRepresentation, []int{0}),
				mustNewElement(tag.SamplesPerPixel, []int{1}),
				mustNewElement(tag.PhotometricInterpretation, []string{"MONOCHROME2"}),
			},
		}
	}

	// Phase 2: write frames in parallel
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	numWorkers = min(numWorkers, len(tasks))

	taskChan := make(chan frameTask, len(tasks))
	type result struct {
		index int
		err   error
	}
	resultChan := make(chan result, len(tasks))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				if err := ctx.Err(); err != nil {
					resultChan <- result{task.index, err}
					continue
				}
				resultChan <- result{task.index, writeFrame(task, ds, q, opts.Label)}
			}
		}()
	}

	for _, task := range tasks {
		taskChan <- task
	}
	close(taskChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	completed := 0
	var firstErr error
	for res := range resultChan {
		if res.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("write frame %d: %w", res.index, res.err)
		}
		completed++
		if opts.ProgressCallback != nil {
			opts.ProgressCallback(completed, len(tasks))
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	files := make([]WrittenFile, len(tasks))
	for i, task := range tasks {
		files[i] = WrittenFile{Path: task.filePath, Frame: task.index, SOPInstanceUID: task.uid}
	}

	idx := seriesIndex{
		PatientID: patientID,
		StudyUID:  studyUID,
		StudyID:   fmt.Sprintf("CF%d", ds.Options.Seed),
		SeriesUID: seriesUID,
	}
	if err := writeDICOMDIR(dir, idx, files); err != nil {
		return nil, err
	}
	return files, nil
}

// framePixels quantizes frame t of the movie into a row-major native frame.
func framePixels(ds *synth.Dataset, t int, q quantizer) *frame.NativeFrame[uint16] {
	dims := ds.Dims
	width, height := dims.Width, dims.Height

	nativeFrame := frame.NewNativeFrame[uint16](16, height, width, width*height, 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			nativeFrame.RawData[y*width+x] = q.raw(ds.Yr.At(dims.Index(y, x), t))
		}
	}
	return nativeFrame
}

func writeFrame(task frameTask, ds *synth.Dataset, q quantizer, label bool) error {
	nativeFrame := framePixels(ds, task.index, q)
	if label {
		drawLabel(nativeFrame, ds.Dims.Width, ds.Dims.Height, task.label)
	}

	pixelDataInfo := dicom.PixelDataInfo{
		Frames: []*frame.Frame{
			{
				Encapsulated: false,
				NativeData:   nativeFrame,
			},
		},
	}

	elements := make([]*dicom.Element, len(task.metadata)+1)
	copy(elements, task.metadata)
	elements[len(task.metadata)] = mustNewElement(tag.PixelData, pixelDataInfo)

	return writeDatasetToFile(task.filePath, dicom.Dataset{Elements: elements})
}
