package archive

import "context"

// AssetKind tells a writer what role an imported blob plays.
type AssetKind string

const (
	AssetToolSchema AssetKind = "tool_schema"
	AssetDocument   AssetKind = "document"
	AssetImage      AssetKind = "image"
)

// Asset is a named blob.
type Asset struct {
	Name string
	Data []byte
}

// DocumentMetadata is the per-document record kept next to a knowledge base document.
type DocumentMetadata struct {
	Name string `json:"name"`
	// Separator splits the document into chunks.
	Separator string `json:"separator"`
}

// DefaultSeparator is the chunk separator used when a document carries no metadata.
const DefaultSeparator = "\n\n"

// AssetReader resolves a tool schema or document file name to its bytes.
// Implementations return a types.Error with code ASSET_NOT_FOUND for unknown names.
type AssetReader interface {
	ReadAsset(ctx context.Context, name string) ([]byte, error)
}

// DocumentAssetReader is an AssetReader that also keeps document metadata and images.
type DocumentAssetReader interface {
	AssetReader
	// DocumentMetadata returns nil when the document has no stored metadata.
	DocumentMetadata(ctx context.Context, name string) (*DocumentMetadata, error)
	DocumentImages(ctx context.Context, name string) ([]Asset, error)
}

// AssetWriter stores an imported blob and returns its host file ID.
type AssetWriter interface {
	WriteAsset(ctx context.Context, data []byte, suggestedName string, kind AssetKind) (string, error)
}

// DocumentAssetWriter is an AssetWriter that can link a document to its metadata and images.
type DocumentAssetWriter interface {
	AssetWriter
	AttachDocument(ctx context.Context, fileID string, meta DocumentMetadata, imageIDs []string) error
}
