package localfs

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"socialcard/internal/ports"
)

// FilesPrefix is the URL path under which the API serves localfs objects.
const FilesPrefix = "/files/"

// LocalFS implements ports.StorageProvider using the local filesystem.
// It stores objects under a configured root directory and addresses them
// as <publicBaseURL>/files/<key>.
type LocalFS struct {
	root          string
	publicBaseURL string
}

func New(root, publicBaseURL string) *LocalFS {
	return &LocalFS{root: root, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

func (l *LocalFS) Provider() string { return "localfs" }

func (l *LocalFS) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	if in.ObjectKey == "" {
		return ports.PutObjectOutput{}, fmt.Errorf("object_key is required")
	}

	dst, err := l.resolve(in.ObjectKey)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return ports.PutObjectOutput{}, err
	}

	outF, err := os.Create(dst)
	if err != nil {
		return ports.PutObjectOutput{}, err
	}

	n, err := io.Copy(outF, in.Reader)
	if cerr := outF.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return ports.PutObjectOutput{}, err
	}

	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: n, URL: l.URL(in.ObjectKey)}, nil
}

// URL returns the public address of objectKey, or "" when no public base
// URL is configured.
func (l *LocalFS) URL(objectKey string) string {
	if l.publicBaseURL == "" {
		return ""
	}
	return l.publicBaseURL + FilesPrefix + strings.TrimLeft(objectKey, "/")
}

func (l *LocalFS) GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error) {
	p, err := l.resolve(objectKey)
	if err != nil {
		return nil, "", 0, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, "", 0, err
	}

	st, statErr := f.Stat()
	if statErr == nil {
		if st.IsDir() {
			f.Close()
			return nil, "", 0, os.ErrNotExist
		}
		size = st.Size()
	}

	// Prefer extension-based type. If empty, sniff first bytes.
	contentType = mime.TypeByExtension(filepath.Ext(p))
	if contentType == "" {
		buf := make([]byte, 512)
		n, _ := f.Read(buf)
		_, _ = f.Seek(0, 0)
		contentType = http.DetectContentType(buf[:n])
	}

	return f, contentType, size, nil
}

func (l *LocalFS) DeleteObject(ctx context.Context, objectKey string) error {
	p, err := l.resolve(objectKey)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// resolve maps a key onto a path inside root, rejecting keys that would
// escape it.
func (l *LocalFS) resolve(objectKey string) (string, error) {
	clean := path.Clean("/" + objectKey)
	if clean == "/" {
		return "", fmt.Errorf("invalid object key: %q", objectKey)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean[1:])), nil
}
