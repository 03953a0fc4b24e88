package sqlpage

import (
	"time"

	"gorm.io/datatypes"
)

// PageSize 是对象字节在表里的分页大小。
// 页是稀疏的：没有落库的页号读出来就是零字节。
const PageSize = 2048

// Object 是大对象的目录行，一个对象一行。
// 真正的字节内容在 Page 表里。
type Object struct {
	// OID 是主键 (uuid 的 32 位十六进制形式)
	OID string `gorm:"primaryKey;type:char(32);column:oid"`

	// Attrs: 存储创建模式等非结构化属性
	// 用 JSON 列而不是加一堆窄字段，后续扩展不用改表
	Attrs datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName 强制指定表名
func (Object) TableName() string {
	return "lo_objects"
}

// Page 是对象的一个数据页
type Page struct {
	OID    string `gorm:"primaryKey;type:char(32);column:oid"`
	PageNo int64  `gorm:"primaryKey;autoIncrement:false"`

	// Data 长度最多 PageSize；最后一页可以更短
	Data []byte `gorm:"type:blob;not null"`
}

func (Page) TableName() string {
	return "lo_pages"
}
