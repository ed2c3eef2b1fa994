package pdf

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Image is an embedded page image ready to be sent to OCR
type Image struct {
	Name     string
	FileType string // png, jpg, tif, ...
	Data     []byte
}

// ImageSource returns the images embedded on the given pages, keyed by
// zero-based page index. It is called at most once per document.
type ImageSource interface {
	PageImages(data []byte, pages []int) (map[int][]Image, error)
}

// PDFCPUImages extracts page images with pdfcpu
type PDFCPUImages struct{}

// PageImages parses data once and returns each selected page's images in
// object order
func (PDFCPUImages) PageImages(data []byte, pages []int) (out map[int][]Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("panic during image extraction: %v", r)
		}
	}()
	if len(pages) == 0 {
		return nil, nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	selection := make([]string, len(pages))
	for i, page := range pages {
		selection[i] = strconv.Itoa(page + 1)
	}
	extracted, err := api.ExtractImagesRaw(bytes.NewReader(data), selection, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract images: %w", err)
	}

	out = make(map[int][]Image, len(pages))
	for _, m := range extracted {
		objNrs := make([]int, 0, len(m))
		for nr := range m {
			objNrs = append(objNrs, nr)
		}
		sort.Ints(objNrs)

		for _, nr := range objNrs {
			img := m[nr]
			if img.Reader == nil {
				continue
			}
			b, err := io.ReadAll(img.Reader)
			if err != nil {
				return nil, fmt.Errorf("failed to read image %s on page %d: %w", img.Name, img.PageNr, err)
			}
			page := img.PageNr - 1
			out[page] = append(out[page], Image{Name: img.Name, FileType: img.FileType, Data: b})
		}
	}
	return out, nil
}
