package storage

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"socialcard/internal/adapters/storage/gdrive"
	"socialcard/internal/adapters/storage/localfs"
	"socialcard/internal/ports"
	"socialcard/internal/util"
)

// Config selects and configures a storage provider.
type Config struct {
	// Provider is "localfs" or "gdrive".
	Provider string

	LocalRoot     string
	PublicBaseURL string

	GDriveClientID     string
	GDriveClientSecret string
	GDriveRefreshToken string
	GDriveFolderID     string
}

// ConfigFromEnv reads STORAGE_* and GDRIVE_* variables.
func ConfigFromEnv() Config {
	return Config{
		Provider:           util.Env("STORAGE_PROVIDER", "localfs"),
		LocalRoot:          util.Env("STORAGE_LOCAL_ROOT", "./data/storage"),
		PublicBaseURL:      util.Env("STORAGE_PUBLIC_BASE_URL", "http://localhost:"+util.Env("HTTP_PORT", "8080")),
		GDriveClientID:     util.Env("GDRIVE_CLIENT_ID", ""),
		GDriveClientSecret: util.Env("GDRIVE_CLIENT_SECRET", ""),
		GDriveRefreshToken: util.Env("GDRIVE_REFRESH_TOKEN", ""),
		GDriveFolderID:     util.Env("GDRIVE_FOLDER_ID", ""),
	}
}

// NewProvider builds the provider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg Config) (ports.StorageProvider, error) {
	switch cfg.Provider {
	case "", "localfs":
		if cfg.LocalRoot == "" {
			return nil, fmt.Errorf("missing storage local root")
		}
		return localfs.New(cfg.LocalRoot, cfg.PublicBaseURL), nil

	case "gdrive":
		return newGDriveProvider(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

func newGDriveProvider(ctx context.Context, cfg Config) (ports.StorageProvider, error) {
	for name, v := range map[string]string{
		"GDRIVE_CLIENT_ID":     cfg.GDriveClientID,
		"GDRIVE_CLIENT_SECRET": cfg.GDriveClientSecret,
		"GDRIVE_REFRESH_TOKEN": cfg.GDriveRefreshToken,
	} {
		if v == "" {
			return nil, fmt.Errorf("missing env: %s", name)
		}
	}

	conf := &oauth2.Config{
		ClientID:     cfg.GDriveClientID,
		ClientSecret: cfg.GDriveClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: cfg.GDriveRefreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, cfg.GDriveFolderID), nil
}
