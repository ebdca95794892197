package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"go-bookshop/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	printOrdersCollection = "print_orders"
	printFilesBucket      = "print_files"
)

// MongoPrintOrderStore implements PrintOrderStore on the "print_orders"
// collection, with the PDFs in the "print_files" GridFS bucket.
type MongoPrintOrderStore struct {
	Collection *mongo.Collection
	Database   *mongo.Database
}

func NewMongoPrintOrderStore(m *Mongo) *MongoPrintOrderStore {
	return &MongoPrintOrderStore{
		Collection: m.Database.Collection(printOrdersCollection),
		Database:   m.Database,
	}
}

// bucket returns a GridFS bucket carrying ctx's deadline. The upload and
// download calls take no context, and a bucket's deadlines are shared by
// every call on it, so each operation gets its own.
func (s *MongoPrintOrderStore) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.Database, options.GridFSBucket().SetName(printFilesBucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.SetWriteDeadline(deadline)
		_ = b.SetReadDeadline(deadline)
	}
	return b, nil
}

func (s *MongoPrintOrderStore) Create(ctx context.Context, order models.PrintOrder, fileName string, file io.Reader) (models.PrintOrder, error) {
	if err := ctx.Err(); err != nil {
		return models.PrintOrder{}, err
	}
	bucket, err := s.bucket(ctx)
	if err != nil {
		return models.PrintOrder{}, err
	}

	order.ID = primitive.NewObjectID()
	counted := &countingReader{r: file}
	upload := options.GridFSUpload().SetMetadata(bson.D{
		{Key: "order_id", Value: order.ID},
		{Key: "content_type", Value: "application/pdf"},
	})
	fileID, err := bucket.UploadFromStream(fileName, counted, upload)
	if err != nil {
		return models.PrintOrder{}, fmt.Errorf("upload print file: %w", err)
	}

	order.FileID = fileID
	order.FileName = fileName
	order.FileSize = counted.n
	if order.Created.IsZero() {
		order.Created = time.Now().UTC()
	}
	if _, err := s.Collection.InsertOne(ctx, order); err != nil {
		if delErr := bucket.DeleteContext(context.Background(), fileID); delErr != nil {
			err = errors.Join(err, delErr)
		}
		return models.PrintOrder{}, fmt.Errorf("insert print order: %w", err)
	}
	return order, nil
}

func (s *MongoPrintOrderStore) Get(ctx context.Context, id primitive.ObjectID) (models.PrintOrder, error) {
	var order models.PrintOrder
	err := s.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PrintOrder{}, ErrNotFound
	}
	if err != nil {
		return models.PrintOrder{}, fmt.Errorf("get print order %s: %w", id.Hex(), err)
	}
	return order, nil
}

func (s *MongoPrintOrderStore) List(ctx context.Context, status string) ([]models.PrintOrder, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "created", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.Collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list print orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := []models.PrintOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("decode print orders: %w", err)
	}
	return orders, nil
}

func (s *MongoPrintOrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (models.PrintOrder, error) {
	var order models.PrintOrder
	err := s.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.PrintOrder{}, ErrNotFound
	}
	if err != nil {
		return models.PrintOrder{}, fmt.Errorf("update print order %s: %w", id.Hex(), err)
	}
	return order, nil
}

func (s *MongoPrintOrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	var order models.PrintOrder
	err := s.Collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete print order %s: %w", id.Hex(), err)
	}

	bucket, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	if err := bucket.DeleteContext(ctx, order.FileID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
		return fmt.Errorf("delete print file %s: %w", order.FileID.Hex(), err)
	}
	return nil
}

func (s *MongoPrintOrderStore) OpenFile(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	bucket, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := bucket.OpenDownloadStream(order.FileID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open print file %s: %w", order.FileID.Hex(), err)
	}
	return stream, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// MemoryPrintOrderStore is a PrintOrderStore held in process memory
type MemoryPrintOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]models.PrintOrder
	files  map[primitive.ObjectID][]byte
}

func NewMemoryPrintOrderStore() *MemoryPrintOrderStore {
	return &MemoryPrintOrderStore{
		orders: make(map[primitive.ObjectID]models.PrintOrder),
		files:  make(map[primitive.ObjectID][]byte),
	}
}

func (s *MemoryPrintOrderStore) Create(ctx context.Context, order models.PrintOrder, fileName string, file io.Reader) (models.PrintOrder, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return models.PrintOrder{}, fmt.Errorf("read print file: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.PrintOrder{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = primitive.NewObjectID()
	order.FileID = primitive.NewObjectID()
	order.FileName = fileName
	order.FileSize = int64(len(data))
	if order.Created.IsZero() {
		order.Created = time.Now().UTC()
	}
	s.files[order.FileID] = data
	s.orders[order.ID] = order
	return order, nil
}

func (s *MemoryPrintOrderStore) Get(ctx context.Context, id primitive.ObjectID) (models.PrintOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return models.PrintOrder{}, ErrNotFound
	}
	return order, nil
}

func (s *MemoryPrintOrderStore) List(ctx context.Context, status string) ([]models.PrintOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := []models.PrintOrder{}
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].Created.Equal(orders[j].Created) {
			return orders[i].ID.Hex() > orders[j].ID.Hex()
		}
		return orders[i].Created.After(orders[j].Created)
	})
	return orders, nil
}

func (s *MemoryPrintOrderStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string, at time.Time) (models.PrintOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return models.PrintOrder{}, ErrNotFound
	}
	order.Status = status
	order.Updated = &at
	s.orders[id] = order
	return order, nil
}

func (s *MemoryPrintOrderStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	delete(s.files, order.FileID)
	return nil
}

func (s *MemoryPrintOrderStore) OpenFile(ctx context.Context, id primitive.ObjectID) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := s.files[order.FileID]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
