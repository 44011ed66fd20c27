package repository

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/models"
	"gorm.io/gorm"
)

// PlayerRepository 玩家仓储接口
type PlayerRepository interface {
	BaseRepository
	Create(ctx context.Context, player *models.Player) error
	Update(ctx context.Context, player *models.Player) error
	FindByID(ctx context.Context, id uint) (*models.Player, error)
	FindByUsername(ctx context.Context, username string) (*models.Player, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	UpdateLastLogin(ctx context.Context, id uint, ip string) error
}

// playerRepo 玩家仓储实现
type playerRepo struct {
	*BaseRepo
}

// NewPlayerRepository 创建玩家仓储
func NewPlayerRepository(db *gorm.DB) PlayerRepository {
	return &playerRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建玩家
func (r *playerRepo) Create(ctx context.Context, player *models.Player) error {
	err := r.db.WithContext(ctx).Create(player).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.New(apperrors.ErrAlreadyExists, "用户名已存在")
		}
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "创建玩家失败")
	}
	return nil
}

// Update 更新玩家
func (r *playerRepo) Update(ctx context.Context, player *models.Player) error {
	return r.db.WithContext(ctx).Save(player).Error
}

// FindByID 根据ID查找
func (r *playerRepo) FindByID(ctx context.Context, id uint) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).First(&player, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "玩家不存在")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询玩家失败")
	}
	return &player, nil
}

// FindByUsername 根据用户名查找
func (r *playerRepo) FindByUsername(ctx context.Context, username string) (*models.Player, error) {
	var player models.Player
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrNotFound, "玩家不存在")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询玩家失败")
	}
	return &player, nil
}

// ExistsByUsername 判断用户名是否已注册
func (r *playerRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("username = ?", username).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrDatabaseQuery, "查询玩家失败")
	}
	return count > 0, nil
}

// UpdateLastLogin 更新最近登录信息
func (r *playerRepo) UpdateLastLogin(ctx context.Context, id uint, ip string) error {
	return r.db.WithContext(ctx).
		Model(&models.Player{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_login_at": time.Now(),
			"last_login_ip": ip,
		}).Error
}

// WithTx 使用事务
func (r *playerRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &playerRepo{
		BaseRepo: r.BaseRepo.WithTx(tx),
	}
}
