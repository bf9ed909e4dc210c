// thesisctl 运维命令行：迁移、种子数据与本地调试 Token
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-hub/backend/config"
	"thesis-hub/backend/pkg/database"
	applogger "thesis-hub/backend/pkg/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "thesisctl",
	Short:         "论文指导平台运维工具",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")
	rootCmd.AddCommand(migrateCmd, seedCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}

// bootstrap 加载配置、初始化日志并连接数据库
func bootstrap() (*config.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "执行数据库迁移（PostgreSQL 版本化迁移，SQLite 自动建表）",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDB(db)
		defer logger.Sync()

		if cfg.Database.Driver != config.DriverPostgres {
			if err := database.AutoMigrate(db); err != nil {
				return err
			}
		} else {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(sqlDB, logger); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "迁移完成")
		return nil
	},
}
