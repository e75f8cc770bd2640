package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ResourceTypes are the Cloudinary asset classes a prefix delete has to
// walk, since the API scopes listing and deletion per class.
var ResourceTypes = []string{"image", "raw", "video"}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

type Client struct {
	cld        *cloudinary.Cloudinary
	cloudName  string
	httpClient *http.Client
}

func NewClient(cloudName, apiKey, apiSecret string) (*Client, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Client{
		cld:        cld,
		cloudName:  cloudName,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// ResourceTypeFor maps a MIME type onto a Cloudinary resource type.
func ResourceTypeFor(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case strings.HasPrefix(mimeType, "video/"):
		return "video"
	default:
		return "raw"
	}
}

// SafeFileName strips trailing dots, replaces everything outside
// [a-zA-Z0-9._-] with underscores and caps the result at 100 characters.
func SafeFileName(name string) string {
	name = strings.TrimRight(name, ".")
	name = unsafeChars.ReplaceAllString(name, "_")
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}

// publicIDFor builds the asset public id: folder plus the sanitized file
// name with its extension dropped.
func publicIDFor(folder, fileName string) string {
	safe := SafeFileName(fileName)
	if i := strings.LastIndex(safe, "."); i > 0 {
		safe = safe[:i]
	}
	return folder + "/" + safe
}

type UploadResult struct {
	Name         string
	URL          string
	PublicID     string
	ResourceType string
}

// Upload stores data under folder and verifies the asset is readable back
// before reporting success.
func (c *Client) Upload(ctx context.Context, data []byte, folder, fileName, mimeType string) (*UploadResult, error) {
	resourceType := ResourceTypeFor(mimeType)
	publicID := publicIDFor(folder, fileName)

	overwrite := true
	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Overwrite:    &overwrite,
	})
	if err != nil {
		return nil, fmt.Errorf("upload failed for %s: %w", publicID, err)
	}
	if resp.Error.Message != "" {
		return nil, fmt.Errorf("upload failed for %s: %s", publicID, resp.Error.Message)
	}

	if err := c.AssetExists(ctx, resp.PublicID, resourceType); err != nil {
		return nil, fmt.Errorf("uploaded %s but verification failed: %w", resp.PublicID, err)
	}

	return &UploadResult{
		Name:         SafeFileName(fileName),
		URL:          resp.SecureURL,
		PublicID:     resp.PublicID,
		ResourceType: resourceType,
	}, nil
}

// AssetExists queries the Admin API for the asset.
func (c *Client) AssetExists(ctx context.Context, publicID, resourceType string) error {
	asset, err := c.cld.Admin.Asset(ctx, admin.AssetParams{
		PublicID:  publicID,
		AssetType: api.AssetType(resourceType),
	})
	if err != nil {
		return fmt.Errorf("asset lookup failed for %s: %w", publicID, err)
	}
	if asset.Error.Message != "" {
		return fmt.Errorf("asset %s not found: %s", publicID, asset.Error.Message)
	}
	return nil
}

// Download fetches the raw bytes of a stored asset via its delivery URL.
func (c *Client) Download(ctx context.Context, publicID, resourceType string) ([]byte, error) {
	url := fmt.Sprintf("https://res.cloudinary.com/%s/%s/upload/%s", c.cloudName, resourceType, publicID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed for %s: %w", publicID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed for %s: status %d", publicID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Destroy removes a single asset.
func (c *Client) Destroy(ctx context.Context, publicID, resourceType string) error {
	invalidate := true
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   &invalidate,
	})
	if err != nil {
		return fmt.Errorf("destroy failed for %s: %w", publicID, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("destroy failed for %s: %s", publicID, resp.Result)
	}
	return nil
}

// DeleteByPrefix removes every asset under prefix across all resource
// types. Listing is scoped per resource type, so each is walked in turn.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) error {
	var firstErr error
	for _, resourceType := range ResourceTypes {
		assets, err := c.cld.Admin.Assets(ctx, admin.AssetsParams{
			AssetType:  api.AssetType(resourceType),
			Prefix:     prefix,
			MaxResults: 500,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to list %s assets under %s: %w", resourceType, prefix, err)
			}
			continue
		}
		for _, asset := range assets.Assets {
			if err := c.Destroy(ctx, asset.PublicID, resourceType); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// DeleteFolder removes the (empty) folder itself.
func (c *Client) DeleteFolder(ctx context.Context, folder string) error {
	resp, err := c.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder})
	if err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", folder, err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("failed to delete folder %s: %s", folder, resp.Error.Message)
	}
	return nil
}
