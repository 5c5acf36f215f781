package model

import "time"

// ConnectionStatus はチャットコネクションの状態を表す。
type ConnectionStatus string

const (
	// ConnectionNegotiating は交渉中の初期状態。
	ConnectionNegotiating ConnectionStatus = "negotiating"
	// ConnectionElitePending は片方の参加者のみエリート化に同意した状態。
	ConnectionElitePending ConnectionStatus = "elite_pending"
	// ConnectionActive は両参加者が合意した稼働状態。
	ConnectionActive ConnectionStatus = "active"
	// ConnectionCompleted は完了状態。
	ConnectionCompleted ConnectionStatus = "completed"
	// ConnectionTerminated は明示的に終了された状態。
	ConnectionTerminated ConnectionStatus = "terminated"
)

// Connection は2ユーザー間の短命なチャットペアリングを表す。
// IsEliteはEliteReadyに両参加者が含まれる場合にのみtrueとなり、
// スイーパーの自動パージを免除する唯一のフラグである。
type Connection struct {
	ID           string           `bson:"_id"`
	Participants []string         `bson:"participants"`
	RequestID    string           `bson:"request_id,omitempty"`
	ChatRoomID   string           `bson:"chat_room_id"`
	Status       ConnectionStatus `bson:"status"`
	EliteReady   []string         `bson:"elite_ready,omitempty"`
	IsElite      bool             `bson:"is_elite"`
	LastActivity time.Time        `bson:"last_activity"`
	LastMessage  string           `bson:"last_message,omitempty"`
	CreatedAt    time.Time        `bson:"created_at"`
}

// HasParticipant は指定ユーザーがこのコネクションの参加者かを返す。
func (c *Connection) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message はコネクションに紐づくチャットメッセージを表す。
type Message struct {
	ID           string    `bson:"_id"`
	ConnectionID string    `bson:"connection_id"`
	SenderID     string    `bson:"sender_id"`
	Content      string    `bson:"content"`
	FileURL      string    `bson:"file_url,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}
