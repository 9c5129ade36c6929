package store

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Error constants for the store layer.
var (
	ErrNotFound    = StoreError("document not found")
	ErrInvalidPath = StoreError("invalid document path")
)

// StoreError helps distinguish store errors.
type StoreError string

func (e StoreError) Error() string {
	return string(e)
}

// Document is the full current value of one stored document.
type Document struct {
	Path string
	Data bson.Raw
}

// Decode unmarshals the document value into out.
func (d Document) Decode(out any) error {
	return bson.Unmarshal(d.Data, out)
}

// Key returns the final path segment, the document's id within its
// collection.
func (d Document) Key() string {
	idx := strings.LastIndexByte(d.Path, '/')
	return d.Path[idx+1:]
}

// ParentPath returns everything before the final path segment.
func ParentPath(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// CollectionCallback receives the full current contents of a collection on
// every change, including the initial read.
type CollectionCallback func(docs []Document)

// DocumentCallback receives the full current value of a document on every
// change, including the initial read. doc is nil while the document does
// not exist.
type DocumentCallback func(doc *Document)

// Subscription is a live listener handle. Unsubscribe releases it; it must
// be called when the owning session ends so no listener outlives its scope.
type Subscription interface {
	Unsubscribe()
}

// DocumentStore is the durable per-key document capability: documents are
// addressed by hierarchical slash-separated paths, every write overwrites
// the whole document, and subscribers get realtime change notifications.
type DocumentStore interface {
	// Set overwrites the document at path with value, creating it if absent.
	Set(ctx context.Context, path string, value any) error
	// Get decodes the document at path into out, or returns ErrNotFound.
	Get(ctx context.Context, path string, out any) error
	// Delete removes the document at path. Deleting a missing document is
	// not an error.
	Delete(ctx context.Context, path string) error
	// List returns all documents whose parent is collectionPath.
	List(ctx context.Context, collectionPath string) ([]Document, error)
	// ListAll returns every stored document. Used by the backup sweep.
	ListAll(ctx context.Context) ([]Document, error)
	// SubscribeCollection delivers the collection's full contents now and
	// after every subsequent change.
	SubscribeCollection(ctx context.Context, collectionPath string, cb CollectionCallback) (Subscription, error)
	// SubscribeDocument delivers the document's full value now and after
	// every subsequent change.
	SubscribeDocument(ctx context.Context, path string, cb DocumentCallback) (Subscription, error)
}
