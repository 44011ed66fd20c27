package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wfunc/commons-game/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB 为测试套件设置测试数据库
func SetupTestDB() *gorm.DB {
	// 使用内存数据库进行测试（更快，不需要文件系统，在所有环境中都能工作）
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.Player{},
		&models.LedgerEntry{},
		&models.LedgerLink{},
		&models.RoundClaim{},
		&models.MoveClaim{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	// 关闭数据库连接
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}

// TestDB 创建测试数据库
func TestDB(t *testing.T) *gorm.DB {
	db := SetupTestDB()
	t.Cleanup(func() {
		CleanupTestDB(db)
	})
	return db
}

// CreateTestPlayer 创建测试玩家
func CreateTestPlayer(t *testing.T, db *gorm.DB, username string) *models.Player {
	player := &models.Player{
		Username: username,
		Password: "x",
		Status:   "active",
	}
	err := db.Create(player).Error
	require.NoError(t, err)
	return player
}
