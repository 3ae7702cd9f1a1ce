package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/folio-labs/portfolio-api/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoSubmission is the stored shape; ids are ObjectIDs in the collection and
// hex strings everywhere else.
type mongoSubmission struct {
	ID        primitive.ObjectID `bson:"_id"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Message   string             `bson:"message"`
	IPAddress string             `bson:"ipAddress"`
	UserAgent string             `bson:"userAgent"`
	IsRead    bool               `bson:"isRead"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *mongoSubmission) toModel() *contact.Submission {
	return &contact.Submission{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Message:   d.Message,
		IPAddress: d.IPAddress,
		UserAgent: d.UserAgent,
		IsRead:    d.IsRead,
		CreatedAt: d.CreatedAt,
	}
}

// MongoRepo implements Store on a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

var _ Store = (*MongoRepo)(nil)

// NewMongoRepo wraps col and makes sure the listing indexes exist.
func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isRead", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		logger.Warnf("contacts: could not ensure indexes on %s: %v", col.Name(), err)
	}
	return &MongoRepo{col: col}
}

func mongoFilter(f contact.ListFilter) bson.M {
	filter := bson.M{}
	if f.IsRead != nil {
		filter["isRead"] = *f.IsRead
	}
	return filter
}

func (m *MongoRepo) Insert(ctx context.Context, s *contact.Submission) (string, error) {
	doc := mongoSubmission{
		ID:        primitive.NewObjectID(),
		Name:      s.Name,
		Email:     s.Email,
		Message:   s.Message,
		IPAddress: s.IPAddress,
		UserAgent: s.UserAgent,
		IsRead:    s.IsRead,
		CreatedAt: s.CreatedAt,
	}
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert contact: %w", err)
	}
	return doc.ID.Hex(), nil
}

func (m *MongoRepo) Query(ctx context.Context, f contact.ListFilter, order Sort, skip, limit int) ([]*contact.Submission, error) {
	if err := checkSort(order); err != nil {
		return nil, err
	}
	dir := 1
	if order.Desc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(skip))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := m.col.Find(ctx, mongoFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	defer cur.Close(ctx)
	out := []*contact.Submission{}
	for cur.Next(ctx) {
		var d mongoSubmission
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode contact: %w", err)
		}
		out = append(out, d.toModel())
	}
	return out, cur.Err()
}

func (m *MongoRepo) Count(ctx context.Context, f contact.ListFilter) (int64, error) {
	n, err := m.col.CountDocuments(ctx, mongoFilter(f))
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func (m *MongoRepo) UpdateField(ctx context.Context, id, field string, value any) (*contact.Submission, error) {
	if err := checkUpdate(field, value); err != nil {
		return nil, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// not an id this store could have issued
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d mongoSubmission
	err = m.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{field: value}}, opts).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update contact %s: %w", id, err)
	}
	return d.toModel(), nil
}
