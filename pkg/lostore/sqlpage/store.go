package sqlpage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lovault/pkg/lostore"
	"lovault/pkg/types"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 实现了 lostore.Store 接口，对象字节按 PageSize 分页落在 SQL 表里。
// 这是经典的 inversion 布局：页是稀疏的，缺页读出来是零。
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Open(ctx context.Context, oid types.OID, mode types.OpenMode) (lostore.Descriptor, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}

	// 1. 目录行必须存在
	var obj Object
	err := s.db.GetConn().WithContext(ctx).
		Where("oid = ?", string(oid)).
		First(&obj).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, lostore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// 2. 计算当前对象长度 (最后一页决定)
	size, err := s.objectSize(ctx, oid)
	if err != nil {
		return nil, err
	}

	return &descriptor{store: s, oid: oid, mode: mode, size: size}, nil
}

func (s *Store) Create(ctx context.Context, mode types.OpenMode) (lostore.Descriptor, error) {
	if !mode.IsValid() {
		return nil, fmt.Errorf("invalid open mode %d", mode)
	}

	oid := types.OID(strings.ReplaceAll(uuid.New().String(), "-", ""))

	obj := Object{
		OID:   string(oid),
		Attrs: datatypes.JSON(fmt.Sprintf(`{"create_mode":%d}`, mode)),
	}
	if err := s.db.GetConn().WithContext(ctx).Create(&obj).Error; err != nil {
		return nil, fmt.Errorf("failed to create object row: %w", err)
	}

	return &descriptor{store: s, oid: oid, mode: mode}, nil
}

func (s *Store) Delete(ctx context.Context, oid types.OID) error {
	// 目录行和数据页在同一个事务里删，不留半截对象
	return s.db.GetConn().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("oid = ?", string(oid)).Delete(&Object{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return lostore.ErrNotFound
		}
		return tx.Where("oid = ?", string(oid)).Delete(&Page{}).Error
	})
}

// objectSize 由最后一页推出对象长度：pageNo*PageSize + len(lastPage)
func (s *Store) objectSize(ctx context.Context, oid types.OID) (int64, error) {
	var last Page
	err := s.db.GetConn().WithContext(ctx).
		Where("oid = ?", string(oid)).
		Order("page_no DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return last.PageNo*PageSize + int64(len(last.Data)), nil
}

// fetchPage 读取一页；缺页返回 nil (调用方按零页处理)
func (s *Store) fetchPage(ctx context.Context, oid types.OID, pageNo int64) (*Page, error) {
	var page Page
	err := s.db.GetConn().WithContext(ctx).
		Where("oid = ? AND page_no = ?", string(oid), pageNo).
		First(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// upsertPage 写入/覆盖一页
func (s *Store) upsertPage(ctx context.Context, page *Page) error {
	return s.db.GetConn().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "oid"}, {Name: "page_no"}},
			DoUpdates: clause.AssignmentColumns([]string{"data"}),
		}).
		Create(page).Error
}
