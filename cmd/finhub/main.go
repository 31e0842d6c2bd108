package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"finhub/internal/api"
	"finhub/internal/config"
	"finhub/internal/jobs"
	"finhub/internal/service/archive"
	jobstore "finhub/internal/service/store"
	"finhub/internal/server"
	"finhub/internal/store"
	"finhub/internal/store/postgres"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
	cfgPath = flag.String("config", "", "配置文件路径 (默认可执行文件同目录的 config.toml)")
)

// closableStore 可关闭的结果存储
type closableStore interface {
	api.ResultStore
	Close() error
}

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  FinHub - financial workbook ingestion")
	fmt.Println("==========================================")

	// 加载配置
	var (
		cfg  *config.AppConfig
		info config.LoadConfigInfo
		err  error
	)
	if *cfgPath != "" {
		cfg, info, err = config.LoadFrom(*cfgPath)
	} else {
		cfg, info, err = config.LoadConfigWithInfo()
	}
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("配置无效: %v", err)
	}

	results, err := openResultStore(cfg)
	if err != nil {
		log.Fatalf("初始化存储失败: %v", err)
	}
	defer results.Close()

	jobStore := jobstore.NewJobStore(cfg.JobTTL())
	purgers := []jobs.Purger{jobStore}

	var arch *archive.Archive
	if cfg.Data.ArchiveUploads {
		dir, err := config.EnsureDataDir(cfg)
		if err != nil {
			log.Fatalf("创建数据目录失败: %v", err)
		}
		if arch, err = archive.New(filepath.Join(dir, "uploads"), cfg.ArchiveRetention()); err != nil {
			log.Fatalf("初始化归档失败: %v", err)
		}
		purgers = append(purgers, arch)
	}

	srv := server.NewServer(cfg, jobStore, results, arch)
	purgers = append(purgers, srv.Downloads())

	janitor := jobs.NewJanitor(cfg.Jobs.PurgeSchedule, purgers...)
	if err := janitor.Start(); err != nil {
		log.Fatalf("启动清理任务失败: %v", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		fmt.Printf("服务启动中，监听端口 %d (driver=%s) ...\n", cfg.Server.Port, results.Driver())
		if err := srv.Run(addr); err != nil {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("关闭服务失败: %v", err)
	}
	janitor.Stop()
}

// openResultStore 按配置的驱动打开结果存储
func openResultStore(cfg *config.AppConfig) (closableStore, error) {
	switch cfg.Data.Driver {
	case config.DriverPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return postgres.New(ctx, cfg.Data.DSN)
	default:
		dir, err := config.EnsureDataDir(cfg)
		if err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
		fmt.Printf("数据目录: %s\n", dir)
		return store.New(filepath.Join(dir, "finhub.db"))
	}
}
