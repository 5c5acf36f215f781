package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// MongoMessageRepo はMongoDBを使用したメッセージリポジトリ。
type MongoMessageRepo struct {
	collection *mongo.Collection
}

// NewMongoMessageRepo はMongoMessageRepoを生成する。
func NewMongoMessageRepo(collection *mongo.Collection) *MongoMessageRepo {
	return &MongoMessageRepo{collection: collection}
}

// Create はメッセージを作成する。
func (r *MongoMessageRepo) Create(ctx context.Context, m *model.Message) error {
	_, err := r.collection.InsertOne(ctx, m)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListByConnection はコネクションのメッセージ一覧を時刻昇順に返す。
func (r *MongoMessageRepo) ListByConnection(ctx context.Context, connectionID string) ([]*model.Message, error) {
	filter := bson.M{"connection_id": connectionID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	var messages []*model.Message
	for cursor.Next(ctx) {
		var m model.Message
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return messages, nil
}

// DeleteByConnection はコネクションに紐づく全メッセージを削除し、件数を返す。
// パージはコネクション本体より先にメッセージを消す順序で行われるため、
// ここでの削除件数が孤児メッセージの発生を防ぐ指標になる。
func (r *MongoMessageRepo) DeleteByConnection(ctx context.Context, connectionID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"connection_id": connectionID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete messages: %w", err)
	}
	return result.DeletedCount, nil
}

// compile-time interface check
var _ MessageRepository = (*MongoMessageRepo)(nil)
