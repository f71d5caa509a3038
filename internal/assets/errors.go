package assets

import "fmt"

// Asset names a required artifact.
type Asset string

const (
	AssetModel        Asset = "model"
	AssetFeatureNames Asset = "feature names"
)

// MissingAssetError reports a required artifact that does not exist. It is
// fatal: no inference may be attempted once it has been returned.
type MissingAssetError struct {
	Asset Asset
	Path  string
}

func (e *MissingAssetError) Error() string {
	return fmt.Sprintf("required %s artifact not found at %s", e.Asset, e.Path)
}

// InvalidAssetError reports an artifact that exists but cannot be used.
type InvalidAssetError struct {
	Asset Asset
	Path  string
	Err   error
}

func (e *InvalidAssetError) Error() string {
	return fmt.Sprintf("invalid %s artifact at %s: %v", e.Asset, e.Path, e.Err)
}

func (e *InvalidAssetError) Unwrap() error {
	return e.Err
}
