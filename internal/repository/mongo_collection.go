package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kpcnc-co/seminar/internal/model"
	"github.com/kpcnc-co/seminar/pkg/database"
)

// mongoDocument 集合中的文档外壳：记录本体内嵌在 record 字段
type mongoDocument[T any] struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	CompositeKey *string            `bson:"compositeKey"`
	Record       T                  `bson:"record"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// mongoCollection 云端文档库实现，ObjectID 按生成时间递增，_id 排序即插入顺序
type mongoCollection[T any] struct {
	coll  *mongo.Collection
	keyOf KeyFunc[T]
}

// NewMongoCollection 创建基于 MongoDB 的集合
func NewMongoCollection[T any](coll *mongo.Collection, keyOf KeyFunc[T]) Collection[T] {
	return &mongoCollection[T]{coll: coll, keyOf: keyOf}
}

// NewMongoRepository 创建 MongoDB 存储
func NewMongoRepository(db *mongo.Database) *Repository {
	return &Repository{
		Plan:   NewMongoCollection[model.SeminarPlan](db.Collection(database.MongoPlans), planKey),
		Result: NewMongoCollection[model.SeminarResult](db.Collection(database.MongoResults), resultKey),
		Driver: "mongo",
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: func() error {
			return db.Client().Disconnect(context.Background())
		},
	}
}

func (r *mongoCollection[T]) List(ctx context.Context) ([]Entry[T], error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Entry[T]{}
	for cur.Next(ctx) {
		var doc mongoDocument[T]
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("解析文档失败: %w", err)
		}
		out = append(out, doc.entry())
	}
	return out, cur.Err()
}

func (r *mongoCollection[T]) GetByID(ctx context.Context, id string) (*Entry[T], error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid}, nil)
}

// FindByKey 走 compositeKey 索引，同键取最早插入的一条
func (r *mongoCollection[T]) FindByKey(ctx context.Context, key string) (*Entry[T], error) {
	return r.findOne(ctx, bson.M{"compositeKey": key},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (r *mongoCollection[T]) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*Entry[T], error) {
	var doc mongoDocument[T]
	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&doc)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e := doc.entry()
	return &e, nil
}

func (r *mongoCollection[T]) Insert(ctx context.Context, rec *T) (string, error) {
	now := time.Now()
	session, datetime := r.keyOf(rec)
	doc := mongoDocument[T]{
		ID:           primitive.NewObjectID(),
		CompositeKey: model.IndexKey(session, datetime),
		Record:       *rec,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID.Hex(), nil
}

func (r *mongoCollection[T]) Replace(ctx context.Context, id string, rec *T) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	session, datetime := r.keyOf(rec)
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"compositeKey": model.IndexKey(session, datetime),
		"record":       rec,
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCollection[T]) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (d mongoDocument[T]) entry() Entry[T] {
	return Entry[T]{ID: d.ID.Hex(), Record: d.Record, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}
