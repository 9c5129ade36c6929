package mongo

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/store"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

const documentsCollectionName = "documents"

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, err
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// storedDocument is the persisted envelope. The document path doubles as
// the _id, so change-stream events identify the affected path even for
// deletes, where no full document is available.
type storedDocument struct {
	Path      string    `bson:"_id"`
	Parent    string    `bson:"parent"`
	Data      bson.Raw  `bson:"data"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// mongoDocumentStore implements store.DocumentStore on a single collection
// of path-keyed documents, using change streams for realtime notifications.
type mongoDocumentStore struct {
	collection *mongo.Collection
	log        *logger.Logger
}

// NewMongoDocumentStore creates a new document store.
func NewMongoDocumentStore(db *mongo.Database, log *logger.Logger) store.DocumentStore {
	return &mongoDocumentStore{
		collection: db.Collection(documentsCollectionName),
		log:        log,
	}
}

// Set overwrites the whole document at path. There are no partial/merge
// semantics anywhere in this store.
func (s *mongoDocumentStore) Set(ctx context.Context, path string, value any) error {
	parent := store.ParentPath(path)
	if parent == "" {
		return store.ErrInvalidPath
	}
	data, err := bson.Marshal(value)
	if err != nil {
		return err
	}
	doc := storedDocument{
		Path:      path,
		Parent:    parent,
		Data:      bson.Raw(data),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": path}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *mongoDocumentStore) Get(ctx context.Context, path string, out any) error {
	var doc storedDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.ErrNotFound
		}
		return err
	}
	return bson.Unmarshal(doc.Data, out)
}

func (s *mongoDocumentStore) Delete(ctx context.Context, path string) error {
	// Zero deleted count means the document was already gone; deletion is
	// idempotent by contract.
	_, err := s.collection.DeleteOne(ctx, bson.M{"_id": path})
	return err
}

func (s *mongoDocumentStore) List(ctx context.Context, collectionPath string) ([]store.Document, error) {
	return s.find(ctx, bson.M{"parent": collectionPath})
}

func (s *mongoDocumentStore) ListAll(ctx context.Context) ([]store.Document, error) {
	return s.find(ctx, bson.M{})
}

func (s *mongoDocumentStore) find(ctx context.Context, filter bson.M) ([]store.Document, error) {
	cursor, err := s.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var stored []storedDocument
	if err = cursor.All(ctx, &stored); err != nil {
		return nil, err
	}

	// Empty result is a valid snapshot, not an error.
	docs := make([]store.Document, 0, len(stored))
	for _, d := range stored {
		docs = append(docs, store.Document{Path: d.Path, Data: d.Data})
	}
	return docs, nil
}

// SubscribeCollection delivers the full current contents immediately, then
// re-reads and redelivers after every change-stream event touching a child
// of collectionPath.
func (s *mongoDocumentStore) SubscribeCollection(ctx context.Context, collectionPath string, cb store.CollectionCallback) (store.Subscription, error) {
	// Children only, no deeper descendants.
	pattern := "^" + regexp.QuoteMeta(collectionPath) + "/[^/]+$"
	return s.subscribe(ctx, pattern, func(deliverCtx context.Context) {
		docs, err := s.List(deliverCtx, collectionPath)
		if err != nil {
			s.log.Errorw("list collection snapshot", "path", collectionPath, "error", err)
			return
		}
		cb(docs)
	})
}

// SubscribeDocument delivers the document's full value immediately, then
// after every change-stream event for exactly that path. A missing
// document is delivered as nil.
func (s *mongoDocumentStore) SubscribeDocument(ctx context.Context, path string, cb store.DocumentCallback) (store.Subscription, error) {
	pattern := "^" + regexp.QuoteMeta(path) + "$"
	return s.subscribe(ctx, pattern, func(deliverCtx context.Context) {
		var doc storedDocument
		err := s.collection.FindOne(deliverCtx, bson.M{"_id": path}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			cb(nil)
			return
		}
		if err != nil {
			s.log.Errorw("read document snapshot", "path", path, "error", err)
			return
		}
		cb(&store.Document{Path: doc.Path, Data: doc.Data})
	})
}

// subscribe opens a change stream filtered by an _id pattern and invokes
// deliver once up front and once per matching event. deliver re-reads the
// authoritative state, so subscribers always see full snapshots and event
// ordering cannot leave them stale.
func (s *mongoDocumentStore) subscribe(ctx context.Context, idPattern string, deliver func(ctx context.Context)) (store.Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": bson.M{"$regex": idPattern}}}},
	}
	stream, err := s.collection.Watch(streamCtx, pipeline)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &changeStreamSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer stream.Close(context.Background())

		deliver(streamCtx)
		for stream.Next(streamCtx) {
			deliver(streamCtx)
		}
		if err := stream.Err(); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Errorw("change stream terminated", "pattern", idPattern, "error", err)
		}
	}()

	return sub, nil
}

type changeStreamSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe stops the stream and waits for the delivery goroutine to
// finish, so no callback fires after it returns.
func (s *changeStreamSubscription) Unsubscribe() {
	s.cancel()
	<-s.done
}

// EnsureDocumentIndexes creates necessary indexes. Call during startup.
func EnsureDocumentIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(documentsCollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}},
	})
	return err
}
