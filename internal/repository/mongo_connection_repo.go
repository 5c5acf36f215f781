package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// MongoConnectionRepo はMongoDBを使用したコネクションリポジトリ。
// コネクションは短命なデータのためドキュメントストアに置き、
// リレーショナルな本体データとは分離する。
type MongoConnectionRepo struct {
	collection *mongo.Collection
}

// NewMongoConnectionRepo はMongoConnectionRepoを生成する。
func NewMongoConnectionRepo(collection *mongo.Collection) *MongoConnectionRepo {
	return &MongoConnectionRepo{collection: collection}
}

// Create はコネクションを作成する。
func (r *MongoConnectionRepo) Create(ctx context.Context, c *model.Connection) error {
	_, err := r.collection.InsertOne(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to insert connection: %w", err)
	}
	return nil
}

// FindByID は指定IDのコネクションを取得する。見つからない場合はnilを返す。
func (r *MongoConnectionRepo) FindByID(ctx context.Context, id string) (*model.Connection, error) {
	var c model.Connection
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find connection by ID: %w", err)
	}
	return &c, nil
}

// ListByParticipant は指定ユーザーが参加するコネクション一覧を
// 最終アクティビティの新しい順に返す。
func (r *MongoConnectionRepo) ListByParticipant(ctx context.Context, userID string) ([]*model.Connection, error) {
	filter := bson.M{"participants": userID}
	opts := options.Find().SetSort(bson.D{{Key: "last_activity", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeConnections(ctx, cursor)
}

// idleBeforeFilter はパージ対象の選定条件を構築する。
// エリート化済みのコネクションは最終アクティビティに関わらず対象外。
func idleBeforeFilter(threshold time.Time) bson.M {
	return bson.M{
		"is_elite":      false,
		"last_activity": bson.M{"$lt": threshold},
	}
}

// ListIdleBefore は最終アクティビティがthresholdより古い非エリートの
// コネクション一覧を返す。パージ対象の選定に使用する。
func (r *MongoConnectionRepo) ListIdleBefore(ctx context.Context, threshold time.Time) ([]*model.Connection, error) {
	cursor, err := r.collection.Find(ctx, idleBeforeFilter(threshold))
	if err != nil {
		return nil, fmt.Errorf("failed to list idle connections: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeConnections(ctx, cursor)
}

// Touch は最終アクティビティと最終メッセージ参照を更新する。
func (r *MongoConnectionRepo) Touch(ctx context.Context, id, lastMessageID string, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"last_activity": at,
		"last_message":  lastMessageID,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to touch connection: %w", err)
	}
	return nil
}

// UpdateEliteState はエリート化ハンドシェイクの進行状態を更新する。
func (r *MongoConnectionRepo) UpdateEliteState(ctx context.Context, id string, eliteReady []string, isElite bool, status model.ConnectionStatus) error {
	update := bson.M{"$set": bson.M{
		"elite_ready": eliteReady,
		"is_elite":    isElite,
		"status":      status,
	}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update elite state: %w", err)
	}
	return nil
}

// Delete は指定IDのコネクションを削除する。
func (r *MongoConnectionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	return nil
}

func decodeConnections(ctx context.Context, cursor *mongo.Cursor) ([]*model.Connection, error) {
	var connections []*model.Connection
	for cursor.Next(ctx) {
		var c model.Connection
		if err := cursor.Decode(&c); err != nil {
			return nil, fmt.Errorf("failed to decode connection: %w", err)
		}
		connections = append(connections, &c)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return connections, nil
}

// compile-time interface check
var _ ConnectionRepository = (*MongoConnectionRepo)(nil)
