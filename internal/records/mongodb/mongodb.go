package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rewards/internal/core"
	"rewards/internal/records"
)

var (
	_ records.Source = (*Repository)(nil)
	_ records.Writer = (*Repository)(nil)
	_ records.Pinger = (*Repository)(nil)
)

// purchaseDocument is the stored shape of a purchase. Amount is kept as a
// decimal string to avoid float rounding.
type purchaseDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	AccountID  string             `bson:"accountId"`
	Amount     string             `bson:"amount"`
	OccurredOn time.Time          `bson:"occurredOn"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// Repository reads and writes purchases in a MongoDB collection.
type Repository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect opens a client and checks the connection.
func Connect(ctx context.Context, uri, database, collection string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Repository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

// Close disconnects the client.
func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ping implements records.Pinger
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Records implements records.Source
func (r *Repository) Records(ctx context.Context, filter core.Filter) ([]core.PurchaseRecord, error) {
	cursor, err := r.collection.Find(ctx, documentFilter(filter),
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find purchases: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []purchaseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode purchases: %w", err)
	}

	out := make([]core.PurchaseRecord, 0, len(docs))
	for _, d := range docs {
		rec, err := d.toCore()
		if err != nil {
			return nil, fmt.Errorf("purchase %s: %w", d.ID.Hex(), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Append implements records.Writer
func (r *Repository) Append(ctx context.Context, rec core.PurchaseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	doc := fromCore(rec)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = time.Now().UTC()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert purchase: %w", err)
	}
	return doc.ID.Hex(), nil
}

func documentFilter(f core.Filter) bson.M {
	if id, single := f.AccountID(); single {
		return bson.M{"accountId": id}
	}
	return bson.M{}
}

func fromCore(rec core.PurchaseRecord) purchaseDocument {
	return purchaseDocument{
		AccountID:  rec.AccountID,
		Amount:     rec.Amount.String(),
		OccurredOn: rec.OccurredOn.Time,
	}
}

func (d purchaseDocument) toCore() (core.PurchaseRecord, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return core.PurchaseRecord{}, fmt.Errorf("amount %q: %w", d.Amount, core.ErrInvalidAmount)
	}
	on := d.OccurredOn.UTC()
	return core.PurchaseRecord{
		AccountID:  d.AccountID,
		Amount:     amount,
		OccurredOn: core.NewDate(on.Year(), int(on.Month()), on.Day()),
	}, nil
}
