package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/kpcnc-co/seminar/config"
)

// Mongo 集合名
const (
	MongoPlans   = "seminarPlans"
	MongoResults = "seminarResults"
)

// NewMongo 连接文档数据库并确保 compositeKey 索引存在
func NewMongo(ctx context.Context, cfg *config.MongoConfig, logger *zap.Logger) (*mongo.Database, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("连接 MongoDB 失败: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping 失败: %w", err)
	}

	db := client.Database(cfg.Database)
	for _, name := range []string{MongoPlans, MongoResults} {
		_, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "compositeKey", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("compositeKey_1__id_1"),
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("创建 %s 索引失败: %w", name, err)
		}
	}

	logger.Info("MongoDB 连接成功",
		zap.String("database", cfg.Database),
	)
	return db, nil
}
