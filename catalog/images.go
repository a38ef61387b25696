package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/paperbridge/bookstore-go/utils"
)

// CoverThumbnailWidths are the responsive sizes generated per cover
var CoverThumbnailWidths = []int{600, 300, 150}

const coverQuality = 80

// ImageProcessor generates cover thumbnails under the media directory
type ImageProcessor struct {
	basePath string
}

// NewImageProcessor creates an image processor rooted at basePath
func NewImageProcessor(basePath string) *ImageProcessor {
	return &ImageProcessor{basePath: basePath}
}

// ThumbnailResult holds the generated thumbnail paths and srcset
type ThumbnailResult struct {
	MainPath string
	SrcSet   string
	Paths    []string
}

// GenerateCoverThumbnails produces webp thumbnails for a cover image at each
// responsive width
func (p *ImageProcessor) GenerateCoverThumbnails(sourcePath, bookID string) (*ThumbnailResult, error) {
	if bookID == "" {
		bookID = utils.GenerateULID()
	}

	src, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}

	targetDir := filepath.Join(p.basePath, "covers")
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var result ThumbnailResult
	var srcSetParts []string

	for i, width := range CoverThumbnailWidths {
		resized := imaging.Resize(src, width, 0, imaging.Lanczos)
		filename := fmt.Sprintf("%s_%dpx.webp", bookID, width)
		targetPath := filepath.Join(targetDir, filename)

		if err := webp.Save(targetPath, resized, &webp.Options{Quality: coverQuality}); err != nil {
			// Remove any thumbnails written before the failure
			for j := 0; j < i; j++ {
				os.Remove(result.Paths[j])
			}
			return nil, fmt.Errorf("failed to save webp thumbnail %s: %w", filename, err)
		}

		result.Paths = append(result.Paths, targetPath)
		relativeURL := filepath.Join("/media", "covers", filename)
		relativeURL = strings.ReplaceAll(relativeURL, "\\", "/")
		srcSetParts = append(srcSetParts, fmt.Sprintf("%s %dw", relativeURL, width))

		if len(result.Paths) == 1 {
			result.MainPath = relativeURL
		}
	}

	result.SrcSet = strings.Join(srcSetParts, ", ")
	return &result, nil
}
