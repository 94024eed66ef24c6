package fileutil

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// MaxCoverWidth is the width covers are downscaled to when the source
// image is wider. Height follows the aspect ratio.
const MaxCoverWidth = 600

// CoverDownloadOptions holds options for downloading cover images.
type CoverDownloadOptions struct {
	// URL is the source URL of the cover image
	URL string
	// OutputDir is the directory where the cover will be saved
	OutputDir string
	// Filename is the name of the cover file (e.g., "Title - cover.jpg")
	Filename string
	// UpdateCovers forces re-downloading even if cover exists
	UpdateCovers bool
	// Resize downscales the image to MaxCoverWidth after download
	Resize bool
}

// CoverDownloadResult holds the result of a cover download operation.
type CoverDownloadResult struct {
	// Downloaded indicates if a new file was downloaded
	Downloaded bool
	// LocalPath is the full path to the downloaded cover
	LocalPath string
	// RelativePath is the path relative to the note (e.g., "attachments/Title - cover.jpg")
	RelativePath string
	// Filename is just the filename
	Filename string
}

// DownloadCover downloads a cover image to the local attachments directory.
// It skips downloading if the file already exists and UpdateCovers is false.
func DownloadCover(opts CoverDownloadOptions) (*CoverDownloadResult, error) {
	if opts.URL == "" {
		return nil, nil
	}

	attachmentsDir := filepath.Join(opts.OutputDir, "attachments")
	if err := os.MkdirAll(attachmentsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachments directory: %w", err)
	}

	localPath := filepath.Join(attachmentsDir, opts.Filename)
	relativePath := filepath.Join("attachments", opts.Filename)

	result := &CoverDownloadResult{
		LocalPath:    localPath,
		RelativePath: relativePath,
		Filename:     opts.Filename,
	}

	if FileExists(localPath) && !opts.UpdateCovers {
		slog.Debug("Cover already exists, skipping download", "path", localPath)
		return result, nil
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, opts.URL)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover file: %w", err)
	}

	_, err = io.Copy(file, resp.Body)
	closeErr := file.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to write cover file: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close cover file: %w", closeErr)
	}

	if opts.Resize {
		if err := resizeCover(localPath); err != nil {
			// Keep the original if resizing fails
			slog.Warn("Failed to resize cover, keeping original", "path", localPath, "error", err)
		}
	}

	slog.Info("Downloaded cover", "path", localPath)
	result.Downloaded = true

	return result, nil
}

// resizeCover downscales the image at path to MaxCoverWidth in place.
// Images already narrower are left untouched.
func resizeCover(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}

	if img.Bounds().Dx() <= MaxCoverWidth {
		return nil
	}

	resized := imaging.Resize(img, MaxCoverWidth, 0, imaging.Lanczos)
	if err := imaging.Save(resized, path); err != nil {
		return fmt.Errorf("failed to save resized image: %w", err)
	}

	return nil
}

// BuildCoverFilename creates a standard cover filename from a title.
// Returns: "Title - cover.jpg"
func BuildCoverFilename(title string) string {
	return SanitizeFilename(title) + " - cover.jpg"
}
