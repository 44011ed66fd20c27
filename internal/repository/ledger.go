package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	apperrors "github.com/wfunc/commons-game/internal/errors"
	"github.com/wfunc/commons-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerRepository 账本仓储接口
// 账本是只追加的：条目按内容寻址，不允许更新或删除
type LedgerRepository interface {
	BaseRepository
	// Put 持久化一条记录，返回内容派生的条目ID（幂等）
	Put(ctx context.Context, kind string, body interface{}) (string, error)
	// Get 按ID取回一条记录并解码到out
	Get(ctx context.Context, id string, out interface{}) error
	// GetEntry 按ID取回原始条目
	GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error)
	// Link 创建base到target的单向链接（相同三元组幂等）
	Link(ctx context.Context, base, target, tag string) error
	// ListLinks 列出base下带tag的全部链接
	ListLinks(ctx context.Context, base, tag string) ([]*models.LedgerLink, error)
	// ListTargets 列出base下带tag的全部目标ID
	ListTargets(ctx context.Context, base, tag string) ([]string, error)
	// ClaimRound 占用(session, round_num)的关闭权，重复占用返回DuplicateTransition
	ClaimRound(ctx context.Context, sessionID string, roundNum int) error
	// ClaimMove 占用(round, owner)的提交权，重复占用返回DuplicateMove
	ClaimMove(ctx context.Context, roundID, owner string) error
}

// ledgerRepo 账本仓储实现
type ledgerRepo struct {
	*BaseRepo
}

// NewLedgerRepository 创建账本仓储
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// ContentID 计算记录的内容派生ID
// ID是kind与规范化JSON正文拼接后的SHA-256小写十六进制。
// encoding/json对结构体按字段声明顺序、对map按键排序输出，
// 因此相同内容总是得到相同ID。
func ContentID(kind string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Put 持久化一条记录
func (r *ledgerRepo) Put(ctx context.Context, kind string, body interface{}) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrLedgerWrite, "记录序列化失败")
	}

	entry := &models.LedgerEntry{
		EntryID: ContentID(kind, data),
		Kind:    kind,
		Body:    string(data),
	}

	// 内容寻址：相同内容写入同一行，重复写入是无害的
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrLedgerWrite, "账本写入失败")
	}

	return entry.EntryID, nil
}

// Get 按ID取回一条记录并解码
func (r *ledgerRepo) Get(ctx context.Context, id string, out interface{}) error {
	entry, err := r.GetEntry(ctx, id)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(entry.Body), out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrLedgerDecode, "记录解码失败")
	}
	return nil
}

// GetEntry 按ID取回原始条目
func (r *ledgerRepo) GetEntry(ctx context.Context, id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Newf(apperrors.ErrNotFound, "账本条目不存在: %s", id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrLedgerRead, "账本读取失败")
	}
	return &entry, nil
}

// Link 创建base到target的单向链接
func (r *ledgerRepo) Link(ctx context.Context, base, target, tag string) error {
	link := &models.LedgerLink{
		Base:   base,
		Target: target,
		Tag:    tag,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(link).Error
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrLedgerLink, "链接写入失败")
	}
	return nil
}

// ListLinks 列出base下带tag的全部链接
// 返回顺序是插入顺序，不保证与提交顺序一致
func (r *ledgerRepo) ListLinks(ctx context.Context, base, tag string) ([]*models.LedgerLink, error) {
	var links []*models.LedgerLink
	err := r.db.WithContext(ctx).
		Where("base = ? AND tag = ?", base, tag).
		Order("id ASC").
		Find(&links).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrLedgerRead, "链接查询失败")
	}
	return links, nil
}

// ListTargets 列出base下带tag的全部目标ID
func (r *ledgerRepo) ListTargets(ctx context.Context, base, tag string) ([]string, error) {
	links, err := r.ListLinks(ctx, base, tag)
	if err != nil {
		return nil, err
	}

	targets := make([]string, 0, len(links))
	for _, link := range links {
		targets = append(targets, link.Target)
	}
	return targets, nil
}

// ClaimRound 占用(session, round_num)的关闭权
func (r *ledgerRepo) ClaimRound(ctx context.Context, sessionID string, roundNum int) error {
	claim := &models.RoundClaim{
		SessionID: sessionID,
		RoundNum:  roundNum,
	}

	err := r.db.WithContext(ctx).Create(claim).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.Newf(apperrors.ErrDuplicateTransition,
				"回合 %d 的关闭已被占用", roundNum)
		}
		return apperrors.Wrap(err, apperrors.ErrLedgerWrite, "回合占用写入失败")
	}
	return nil
}

// ClaimMove 占用(round, owner)的提交权
// 先读后写的重复检查在并发提交下会漏判，唯一约束是最终的裁决
func (r *ledgerRepo) ClaimMove(ctx context.Context, roundID, owner string) error {
	claim := &models.MoveClaim{
		RoundID: roundID,
		Owner:   owner,
	}

	err := r.db.WithContext(ctx).Create(claim).Error
	if err != nil {
		if isDuplicateKeyError(err) {
			return apperrors.New(apperrors.ErrDuplicateMove, "本回合已提交过移动")
		}
		return apperrors.Wrap(err, apperrors.ErrLedgerWrite, "移动占用写入失败")
	}
	return nil
}

// WithTx 使用事务
func (r *ledgerRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &ledgerRepo{
		BaseRepo: r.BaseRepo.WithTx(tx),
	}
}

// isDuplicateKeyError 判断是否唯一约束冲突
// gorm只对部分驱动翻译为ErrDuplicatedKey，sqlite需要匹配错误文本
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key")
}
