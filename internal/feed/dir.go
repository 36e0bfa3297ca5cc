package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/conn-castle/package-console/internal/messages"
)

// IndexFileName is the catalog file of a local folder feed.
const IndexFileName = "index.json"

type indexFile struct {
	Packages []metadataJSON `json:"packages"`
}

// DirClient serves metadata from a local folder containing index.json.
type DirClient struct {
	dir string
}

// NewDirClient returns a client for the folder at dir.
func NewDirClient(dir string) *DirClient {
	return &DirClient{dir: dir}
}

// Search implements Client.
func (c *DirClient) Search(ctx context.Context, query string, filter SearchFilter, skip int, take int) ([]Metadata, error) {
	idx, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Search(query, filter, skip, take), nil
}

// Versions implements Client.
func (c *DirClient) Versions(ctx context.Context, id string, filter SearchFilter) ([]Metadata, error) {
	idx, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return idx.Versions(id, filter), nil
}

func (c *DirClient) load(ctx context.Context) (*Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(c.dir, IndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.FeedReadIndexFmt, path, err)
	}
	var file indexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf(messages.FeedInvalidIndexFmt, path, err)
	}
	entries, err := decodeAll(file.Packages)
	if err != nil {
		return nil, fmt.Errorf(messages.FeedInvalidIndexFmt, path, err)
	}
	return NewIndex(entries), nil
}

// WriteIndex writes entries as dir/index.json.
func WriteIndex(dir string, entries []Metadata) error {
	file := indexFile{Packages: make([]metadataJSON, 0, len(entries))}
	for _, m := range entries {
		file.Packages = append(file.Packages, fromMetadata(m))
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(dir, IndexFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf(messages.FeedWriteIndexFmt, path, err)
	}
	return nil
}
