package dataset

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/matnet/internal/matrix"
)

// IDX magic numbers for unsigned byte image and label files.
const (
	ImagesMagic = 2051
	LabelsMagic = 2049
)

// MaxImagePixels bounds rows*cols of a single IDX image.
const MaxImagePixels = 1 << 24

var (
	// ErrBadMagic is returned when an IDX header carries an unexpected magic number.
	ErrBadMagic = errors.New("dataset: bad idx magic number")
	// ErrCountMismatch is returned when image and label files hold a different
	// number of items.
	ErrCountMismatch = errors.New("dataset: image and label counts differ")
)

type imagesHeader struct {
	Magic, Count, Rows, Cols int32
}

type labelsHeader struct {
	Magic, Count int32
}

// ReadIDXImages reads an IDX image file. Each image becomes a [rows x cols]
// matrix with pixel values scaled to [0, 1].
func ReadIDXImages(r io.Reader) ([]*matrix.Matrix, error) {
	var h imagesHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("read images header: %w", err)
	}
	if h.Magic != ImagesMagic {
		return nil, fmt.Errorf("%w: images file has %d, want %d", ErrBadMagic, h.Magic, ImagesMagic)
	}
	if h.Count < 0 || h.Rows < 1 || h.Cols < 1 {
		return nil, fmt.Errorf("images header: invalid dimensions %d x %d x %d", h.Count, h.Rows, h.Cols)
	}

	size := int(h.Rows) * int(h.Cols)
	if size > MaxImagePixels {
		return nil, fmt.Errorf("images header: %d x %d exceeds %d pixels", h.Rows, h.Cols, MaxImagePixels)
	}
	buf := make([]byte, size)
	// The count is untrusted; grow as images actually arrive.
	var images []*matrix.Matrix
	for i := 0; i < int(h.Count); i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read image %d: %w", i, err)
		}
		img := matrix.New(int(h.Rows), int(h.Cols))
		data := img.Data()
		for j, px := range buf {
			data[j] = float64(px) / 255
		}
		images = append(images, img)
	}
	return images, nil
}

// ReadIDXLabels reads an IDX label file.
func ReadIDXLabels(r io.Reader) ([]uint8, error) {
	var h labelsHeader
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("read labels header: %w", err)
	}
	if h.Magic != LabelsMagic {
		return nil, fmt.Errorf("%w: labels file has %d, want %d", ErrBadMagic, h.Magic, LabelsMagic)
	}
	if h.Count < 0 {
		return nil, fmt.Errorf("labels header: invalid count %d", h.Count)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(h.Count)))
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(labels) != int(h.Count) {
		return nil, fmt.Errorf("read labels: %w: got %d of %d", io.ErrUnexpectedEOF, len(labels), h.Count)
	}
	return labels, nil
}

// LoadIDX reads an IDX image file and its label file into a Dataset whose
// labels are one-hot rows of width classes.
func LoadIDX(imagesPath, labelsPath string, classes int) (*Dataset, error) {
	images, err := readFile(imagesPath, ReadIDXImages)
	if err != nil {
		return nil, err
	}
	labels, err := readFile(labelsPath, ReadIDXLabels)
	if err != nil {
		return nil, err
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("%w: %d images, %d labels", ErrCountMismatch, len(images), len(labels))
	}

	d := &Dataset{
		Samples: images,
		Labels:  make([]*matrix.Matrix, len(labels)),
	}
	for i, l := range labels {
		if int(l) >= classes {
			return nil, fmt.Errorf("label %d at index %d exceeds %d classes", l, i, classes)
		}
		d.Labels[i] = OneHot(int(l), classes)
	}
	return d, nil
}

func readFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	file, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	v, err := read(bufio.NewReader(file))
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
