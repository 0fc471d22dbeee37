package database

import (
	"errors"
	"fmt"
	"log"

	"finance/config"
	"finance/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	logLevel := logger.Info
	if cfg.Server.Mode == "release" {
		logLevel = logger.Warn
	}

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Transaction{},
		&models.Budget{},
	); err != nil {
		return err
	}

	log.Println("数据库初始化成功")
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultCategories 为用户补齐默认类别，已存在的（同名同类型）跳过。
// 返回新建的类别数量。
func SeedDefaultCategories(db *gorm.DB, userID uint) (int, error) {
	created := 0
	for _, item := range models.GetDefaultCategories() {
		var existing models.Category
		err := db.Where("user_id = ? AND name = ? AND type = ?", userID, item.Name, item.Type).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("查询默认类别 %s 失败: %w", item.Name, err)
		}
		cat := models.Category{
			UserID: userID,
			Name:   item.Name,
			Type:   item.Type,
			Icon:   item.Icon,
			Color:  item.Color,
		}
		if err := db.Create(&cat).Error; err != nil {
			return created, fmt.Errorf("创建默认类别 %s 失败: %w", item.Name, err)
		}
		created++
	}
	return created, nil
}

// SeedAllUsers 为所有用户补齐默认类别
func SeedAllUsers(db *gorm.DB) error {
	var users []models.User
	if err := db.Order("id").Find(&users).Error; err != nil {
		return fmt.Errorf("查询用户失败: %w", err)
	}
	for _, u := range users {
		n, err := SeedDefaultCategories(db, u.ID)
		if err != nil {
			return err
		}
		log.Printf("已为用户 %s 创建默认类别 %d 个", u.Username, n)
	}
	return nil
}
