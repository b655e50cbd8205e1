package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	mimeGoogleSheet = "application/vnd.google-apps.spreadsheet"
	mimeFolder      = "application/vnd.google-apps.folder"
	mimeXLSX        = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeCSV         = "text/csv"
)

type Service struct {
	srv *drive.Service
}

// NewService authenticates with a service account JSON key using read-only scope.
func NewService(ctx context.Context, credentialsJSON string) (*Service, error) {
	config, err := google.JWTConfigFromJSON(
		[]byte(credentialsJSON),
		drive.DriveReadonlyScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse drive credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}

	return &Service{srv: srv}, nil
}

type File struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	Size         int64  `json:"size,string,omitempty"`
}

// IsSpreadsheet reports whether the file can be analysed: a native Google
// Sheet, an XLSX workbook or a CSV export.
func (f *File) IsSpreadsheet() bool {
	switch f.MimeType {
	case mimeGoogleSheet, mimeXLSX, mimeCSV:
		return true
	}

	ext := strings.ToLower(filepath.Ext(f.Name))
	return ext == ".xlsx" || ext == ".csv"
}

// ListSpreadsheets lists the analysable files in a folder ("root" when empty).
func (s *Service) ListSpreadsheets(ctx context.Context, folderID string) ([]*File, error) {
	if folderID == "" {
		folderID = "root"
	}

	var files []*File
	err := s.srv.Files.List().
		Q(fmt.Sprintf("'%s' in parents and trashed=false", folderID)).
		Fields("nextPageToken, files(id, name, mimeType, modifiedTime, size)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				file := &File{
					ID:           f.Id,
					Name:         f.Name,
					MimeType:     f.MimeType,
					ModifiedTime: f.ModifiedTime,
					Size:         f.Size,
				}
				if file.IsSpreadsheet() {
					files = append(files, file)
				}
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve files: %w", err)
	}

	return files, nil
}

// Fetch downloads a file into memory. Native Google Sheets are exported as XLSX,
// and the returned name then carries an .xlsx extension so the table reader picks the right format.
func (s *Service) Fetch(ctx context.Context, fileID string) (*File, []byte, error) {
	meta, err := s.srv.Files.Get(fileID).Fields("id, name, mimeType, modifiedTime, size").Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to read file metadata %s: %w", fileID, err)
	}
	file := &File{ID: meta.Id, Name: meta.Name, MimeType: meta.MimeType, ModifiedTime: meta.ModifiedTime, Size: meta.Size}

	var body io.ReadCloser
	if file.MimeType == mimeGoogleSheet {
		resp, err := s.srv.Files.Export(fileID, mimeXLSX).Context(ctx).Download()
		if err != nil {
			return nil, nil, fmt.Errorf("unable to export sheet %s: %w", fileID, err)
		}
		body = resp.Body
		if !strings.EqualFold(filepath.Ext(file.Name), ".xlsx") {
			file.Name += ".xlsx"
		}
	} else {
		resp, err := s.srv.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, nil, fmt.Errorf("unable to download file %s: %w", fileID, err)
		}
		body = resp.Body
	}
	defer body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, nil, fmt.Errorf("unable to read file %s: %w", fileID, err)
	}

	return file, buf.Bytes(), nil
}

// FindFolderByPath walks a slash separated folder path from the Drive root.
func (s *Service) FindFolderByPath(ctx context.Context, path string) (string, error) {
	currentID := "root"

	for _, folder := range strings.Split(path, "/") {
		if folder == "" {
			continue
		}

		result, err := s.srv.Files.List().
			Q(fmt.Sprintf("'%s' in parents and name='%s' and mimeType='%s' and trashed=false",
				currentID, strings.ReplaceAll(folder, "'", "\\'"), mimeFolder)).
			Fields("files(id, name)").
			Context(ctx).
			Do()
		if err != nil {
			return "", fmt.Errorf("error finding folder %s: %w", folder, err)
		}

		if len(result.Files) == 0 {
			return "", fmt.Errorf("folder not found: %s", folder)
		}

		currentID = result.Files[0].Id
	}

	return currentID, nil
}
