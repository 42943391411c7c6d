package models

// Room 表示一次 PDF 上传及其对话上下文，由 MySQL 独占管理。
// 创建后不可修改，删除由房间生命周期管理器级联完成。
type Room struct {
	ID       int64  `gorm:"primaryKey;autoIncrement" json:"room_id"`
	UserID   int64  `gorm:"not null;index" json:"user_id"`
	Title    string `gorm:"size:255;not null" json:"title"`
	FilePath string `gorm:"size:255;not null" json:"file_path"`
}

// TableName 指定 GORM 使用的表名。
func (Room) TableName() string {
	return "rooms"
}
