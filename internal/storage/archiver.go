package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/store"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
)

const archiveContentType = "application/json"

// Archiver writes JSON snapshots of tracker documents to object storage:
// a last-chance copy of a plan right before deletion, and a scheduled dump
// of every stored document.
type Archiver struct {
	objects ObjectStorage
	docs    store.DocumentStore
	log     *logger.Logger
}

// NewArchiver creates an archiver over the given object storage and
// document store.
func NewArchiver(objects ObjectStorage, docs store.DocumentStore, log *logger.Logger) *Archiver {
	return &Archiver{objects: objects, docs: docs, log: log}
}

// ArchivePlan snapshots one plan before its document is deleted, keyed by
// owner and plan id so explicit deletion stays recoverable out-of-band.
func (a *Archiver) ArchivePlan(ctx context.Context, userID string, plan domain.Plan) error {
	body, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan %s: %w", plan.ID, err)
	}
	key := fmt.Sprintf("archive/%s/plans/%s.json", userID, plan.ID)
	return a.objects.PutObject(ctx, key, body, archiveContentType)
}

// SnapshotAll dumps every stored document to object storage under a
// date-stamped prefix. Individual failures are logged and skipped; the
// first error is reported after the sweep completes.
func (a *Archiver) SnapshotAll(ctx context.Context) error {
	docs, err := a.docs.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	prefix := "backup/" + time.Now().UTC().Format(domain.DateLayout)
	var firstErr error
	for _, doc := range docs {
		var value bson.M
		if err := doc.Decode(&value); err != nil {
			a.log.Warnw("skip undecodable document in backup", "path", doc.Path, "error", err)
			continue
		}
		body, err := json.Marshal(value)
		if err != nil {
			a.log.Warnw("skip unmarshalable document in backup", "path", doc.Path, "error", err)
			continue
		}
		key := fmt.Sprintf("%s/%s.json", prefix, doc.Path)
		if err := a.objects.PutObject(ctx, key, body, archiveContentType); err != nil {
			a.log.Errorw("backup document", "path", doc.Path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	a.log.Infow("document backup finished", "documents", len(docs), "prefix", prefix)
	return firstErr
}
