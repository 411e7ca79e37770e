package gdrive

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"socialcard/internal/ports"
)

// Client implements ports.StorageProvider backed by Google Drive.
// Uploads use the ObjectKey as the Drive file name; the returned
// ObjectKey is the Drive fileId, which Get/Delete expect.
type Client struct {
	srv      *drive.Service
	folderID string
}

func NewClient(srv *drive.Service, folderID string) *Client {
	return &Client{srv: srv, folderID: folderID}
}

func (c *Client) Provider() string { return "gdrive" }

func (c *Client) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	file := &drive.File{Name: in.ObjectKey, MimeType: in.ContentType}
	if c.folderID != "" {
		file.Parents = []string{c.folderID}
	}

	call := c.srv.Files.Create(file).
		SupportsAllDrives(true).
		Fields("id", "webContentLink")
	if in.ContentType != "" {
		call = call.Media(in.Reader, googleapi.ContentType(in.ContentType))
	} else {
		call = call.Media(in.Reader)
	}

	created, err := call.Context(ctx).Do()
	if err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive upload failed: %w", err)
	}

	out := ports.PutObjectOutput{ObjectKey: created.Id, Size: in.Size}
	if !in.Public {
		return out, nil
	}

	if _, err := c.srv.Permissions.Create(created.Id, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return ports.PutObjectOutput{}, fmt.Errorf("gdrive share failed: %w", err)
	}

	out.URL = created.WebContentLink
	if out.URL == "" {
		out.URL = PublicURL(created.Id)
	}
	return out, nil
}

// PublicURL is the direct download address of a publicly shared file.
func PublicURL(fileID string) string {
	return "https://drive.google.com/uc?export=download&id=" + fileID
}

func (c *Client) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	resp, err := c.srv.Files.Get(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Download()
	if err != nil {
		return nil, "", 0, err
	}

	contentType = resp.Header.Get("Content-Type")
	size = resp.ContentLength
	return resp.Body, contentType, size, nil
}

func (c *Client) DeleteObject(ctx context.Context, objectKey string) error {
	return c.srv.Files.Delete(objectKey).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
}
