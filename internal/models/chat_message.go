package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// 消息发送方枚举。
const (
	SenderUser   = "user"   // 用户提出的问题
	SenderSystem = "system" // 系统生成的回答
)

// ChatMessage 表示房间转录中的一条消息，存储在 MongoDB 中。
// 同一房间内 sequence_number 从 1 开始严格递增，按插入顺序排列。
type ChatMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RoomID         int64              `bson:"room_id" json:"room_id"`
	SequenceNumber int64              `bson:"sequence_number" json:"sequence_number"`
	Sender         string             `bson:"sender" json:"sender"`
	Content        string             `bson:"content" json:"content"`
	Timestamp      time.Time          `bson:"timestamp" json:"timestamp"`
}
