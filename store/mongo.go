package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go-bookshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo holds the client and database shared by the Mongo stores
type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// ConnectMongo dials MongoDB and verifies the connection
func ConnectMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	slog.Info("Connected to MongoDB", "database", database)
	return &Mongo{Client: client, Database: client.Database(database)}, nil
}

// EnsureIndexes creates the indexes the cart and user queries rely on
func (m *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := m.Database.Collection("carts").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "cart_id", Value: 1}, {Key: "active", Value: 1}, {Key: "created", Value: -1}}},
		{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("cart indexes: %w", err)
	}
	_, err = m.Database.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	_, err = m.Database.Collection(printOrdersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}, {Key: "created", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("print order indexes: %w", err)
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// MongoCartStore implements CartStore on the "carts" collection
type MongoCartStore struct {
	Collection *mongo.Collection
}

func NewMongoCartStore(m *Mongo) *MongoCartStore {
	return &MongoCartStore{Collection: m.Database.Collection("carts")}
}

func (s *MongoCartStore) Create(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	rec.ID = primitive.NewObjectID()
	rec.Version = 1
	if rec.Created.IsZero() {
		rec.Created = time.Now().UTC()
	}
	if rec.Items == nil {
		rec.Items = []models.LineItem{}
	}
	if _, err := s.Collection.InsertOne(ctx, rec); err != nil {
		return models.CartRecord{}, fmt.Errorf("insert cart: %w", err)
	}
	return rec, nil
}

func (s *MongoCartStore) Update(ctx context.Context, rec models.CartRecord) (models.CartRecord, error) {
	next := rec
	next.Version = rec.Version + 1
	if next.Items == nil {
		next.Items = []models.LineItem{}
	}
	res, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": rec.ID, "version": rec.Version}, next)
	if err != nil {
		return models.CartRecord{}, fmt.Errorf("update cart %s: %w", rec.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		count, err := s.Collection.CountDocuments(ctx, bson.M{"_id": rec.ID})
		if err != nil {
			return models.CartRecord{}, fmt.Errorf("update cart %s: %w", rec.ID.Hex(), err)
		}
		if count == 0 {
			return models.CartRecord{}, ErrNotFound
		}
		return models.CartRecord{}, ErrConflict
	}
	return next, nil
}

func (s *MongoCartStore) GetOne(ctx context.Context, id primitive.ObjectID) (models.CartRecord, error) {
	var rec models.CartRecord
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CartRecord{}, ErrNotFound
	}
	if err != nil {
		return models.CartRecord{}, fmt.Errorf("get cart %s: %w", id.Hex(), err)
	}
	return rec, nil
}

func (s *MongoCartStore) GetList(ctx context.Context, page, perPage int, opts ListOptions) ([]models.CartRecord, error) {
	page, perPage = normalizePage(page, perPage)
	findOpts := options.Find().
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage)).
		SetSort(cartSort(opts.Sort))

	cursor, err := s.Collection.Find(ctx, cartFilter(opts.Filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("list carts: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.CartRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode carts: %w", err)
	}
	return records, nil
}

func (s *MongoCartStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete cart %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func cartFilter(f CartFilter) bson.M {
	filter := bson.M{}
	if f.SessionToken != "" {
		filter["cart_id"] = f.SessionToken
	}
	if f.Active != nil {
		filter["active"] = *f.Active
	}
	if !f.CreatedBefore.IsZero() {
		filter["created"] = bson.M{"$lte": f.CreatedBefore}
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

func cartSort(sort string) bson.D {
	if sort == SortOldest {
		return bson.D{{Key: "created", Value: 1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}}
}

// MongoBookStore implements BookStore on the "books" collection
type MongoBookStore struct {
	Collection *mongo.Collection
}

func NewMongoBookStore(m *Mongo) *MongoBookStore {
	return &MongoBookStore{Collection: m.Database.Collection("books")}
}

func (s *MongoBookStore) Create(ctx context.Context, b models.Book) (models.Book, error) {
	b.ID = primitive.NewObjectID()
	if b.Created.IsZero() {
		b.Created = time.Now().UTC()
	}
	if _, err := s.Collection.InsertOne(ctx, b); err != nil {
		return models.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return b, nil
}

func (s *MongoBookStore) Update(ctx context.Context, b models.Book) (models.Book, error) {
	current, err := s.Get(ctx, b.ID)
	if err != nil {
		return models.Book{}, err
	}
	b.Created = current.Created
	res, err := s.Collection.ReplaceOne(ctx, bson.M{"_id": b.ID}, b)
	if err != nil {
		return models.Book{}, fmt.Errorf("update book %s: %w", b.ID.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return models.Book{}, ErrNotFound
	}
	return b, nil
}

func (s *MongoBookStore) Get(ctx context.Context, id primitive.ObjectID) (models.Book, error) {
	var b models.Book
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Book{}, ErrNotFound
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("get book %s: %w", id.Hex(), err)
	}
	return b, nil
}

func (s *MongoBookStore) List(ctx context.Context, limit int, featuredOnly bool) ([]models.Book, error) {
	filter := bson.M{}
	if featuredOnly {
		filter["featured"] = true
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}
	cursor, err := s.Collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer cursor.Close(ctx)

	books := []models.Book{}
	if err := cursor.All(ctx, &books); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}
	return books, nil
}

func (s *MongoBookStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete book %s: %w", id.Hex(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MongoUserStore implements UserStore on the "users" collection
type MongoUserStore struct {
	Collection *mongo.Collection
}

func NewMongoUserStore(m *Mongo) *MongoUserStore {
	return &MongoUserStore{Collection: m.Database.Collection("users")}
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.Collection.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *MongoUserStore) Save(ctx context.Context, u models.User) (models.User, error) {
	existing, err := s.FindByEmail(ctx, u.Email)
	switch {
	case err == nil:
		u.ID = existing.ID
	case errors.Is(err, ErrNotFound):
		u.ID = primitive.NewObjectID()
	default:
		return models.User{}, err
	}
	_, err = s.Collection.ReplaceOne(ctx, bson.M{"_id": u.ID}, u, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return models.User{}, ErrDuplicate
	}
	if err != nil {
		return models.User{}, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}
