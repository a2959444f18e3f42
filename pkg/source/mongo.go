package source

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/meshmap/pkg/buildinfo"
	"github.com/matzehuels/meshmap/pkg/errors"
	"github.com/matzehuels/meshmap/pkg/topology"
)

// Mongo reads networkmap documents from a MongoDB collection. Each document
// is one snapshot; Load returns the one with the latest timestamp.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
	name   string
}

// OpenMongo connects to uri and verifies the connection.
func OpenMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo source needs a connection URI")
	}
	if database == "" {
		database = "meshmap"
	}
	if collection == "" {
		collection = "networkmap"
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetAppName(buildinfo.UserAgent()).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
		name:   KindMongo + ":" + database + "." + collection,
	}, nil
}

// Load returns the newest snapshot.
func (m *Mongo) Load(ctx context.Context) (*topology.Graph, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var doc topology.Document
	err := m.coll.FindOne(ctx, bson.D{}, opts).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeNotFound, "no snapshot in %s", m.name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "load snapshot from %s", m.name)
	}
	return doc.Graph()
}

// Save inserts g as a new snapshot. A zero timestamp is set to now.
func (m *Mongo) Save(ctx context.Context, g *topology.Graph) error {
	doc := topology.NewDocument(g)
	if doc.Timestamp.IsZero() {
		doc.Timestamp = time.Now().UTC()
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "save snapshot to %s", m.name)
	}
	return nil
}

// Name returns "mongo:<database>.<collection>".
func (m *Mongo) Name() string { return m.name }

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}
