package storage

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/depscan/pkg/errors"
	"github.com/matzehuels/depscan/pkg/graph"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "depscan"

const snapshotCollection = "snapshots"

// MongoStore keeps snapshots in a MongoDB collection, one document per
// snapshot with the graph embedded.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// snapshotDoc is the stored form of a Snapshot.
type snapshotDoc struct {
	ID          string          `bson:"_id"`
	Project     string          `bson:"project"`
	Root        string          `bson:"root,omitempty"`
	CreatedAt   time.Time       `bson:"created_at"`
	Fingerprint string          `bson:"fingerprint"`
	Nodes       int             `bson:"nodes"`
	Edges       int             `bson:"edges"`
	Failures    int             `bson:"failures"`
	Graph       *graph.Document `bson:"graph,omitempty"`
}

// OpenMongo connects to uri, verifies the connection and ensures the
// collection's index exists.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "mongo store requires a connection URI")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongo")
	}
	return NewMongoStore(ctx, client, database)
}

// NewMongoStore uses an existing client. Close disconnects it.
func NewMongoStore(ctx context.Context, client *mongo.Client, database string) (*MongoStore, error) {
	coll := client.Database(database).Collection(snapshotCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create snapshot index")
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	doc := graph.ToDocument(snap.Graph)
	_, err := s.coll.InsertOne(ctx, snapshotDoc{
		ID:          snap.ID,
		Project:     snap.Project,
		Root:        snap.Root,
		CreatedAt:   snap.CreatedAt,
		Fingerprint: snap.Fingerprint,
		Nodes:       snap.Nodes,
		Edges:       snap.Edges,
		Failures:    snap.Failures,
		Graph:       &doc,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "insert snapshot %s", snap.ID)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	var doc snapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "find snapshot %s", id)
	}
	snap := doc.snapshot()
	if doc.Graph != nil {
		if snap.Graph, err = graph.FromDocument(*doc.Graph); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode snapshot %s", id)
		}
	}
	return &snap, nil
}

func (s *MongoStore) List(ctx context.Context, project string, limit int) ([]Snapshot, error) {
	filter := bson.M{}
	if project != "" {
		filter["project"] = project
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"graph": 0})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	var docs []snapshotDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots")
	}
	out := make([]Snapshot, len(docs))
	for i, d := range docs {
		out[i] = d.snapshot()
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", id)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (d snapshotDoc) snapshot() Snapshot {
	return Snapshot{
		ID:          d.ID,
		Project:     d.Project,
		Root:        d.Root,
		CreatedAt:   d.CreatedAt.UTC(),
		Fingerprint: d.Fingerprint,
		Nodes:       d.Nodes,
		Edges:       d.Edges,
		Failures:    d.Failures,
	}
}
