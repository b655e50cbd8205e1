package drive

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// Download is one spreadsheet pulled from Drive into memory.
type Download struct {
	File *File
	Data []byte
}

// Fetcher is the subset of Service used to pull spreadsheets.
type Fetcher interface {
	ListSpreadsheets(ctx context.Context, folderID string) ([]*File, error)
	Fetch(ctx context.Context, fileID string) (*File, []byte, error)
}

// Downloader pulls every spreadsheet of a folder for batch analysis.
type Downloader struct {
	fetcher Fetcher
}

// NewDownloader creates a new Downloader.
func NewDownloader(f Fetcher) *Downloader {
	return &Downloader{fetcher: f}
}

// FetchFolder downloads all analysable files in a folder. A failed file is
// logged and skipped so one broken upload does not block the rest.
func (d *Downloader) FetchFolder(ctx context.Context, folderID string) ([]Download, error) {
	files, err := d.fetcher.ListSpreadsheets(ctx, folderID)
	if err != nil {
		return nil, err
	}

	downloads := make([]Download, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file, data, err := d.fetcher.Fetch(ctx, f.ID)
		if err != nil {
			log.Warn().Err(err).Str("file_id", f.ID).Str("name", f.Name).Msg("skipping drive file")
			continue
		}
		downloads = append(downloads, Download{File: file, Data: data})
	}

	if len(files) > 0 && len(downloads) == 0 {
		return nil, fmt.Errorf("none of the %d files in folder %s could be downloaded", len(files), folderID)
	}

	return downloads, nil
}
