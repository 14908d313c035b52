// @title 自适应练习后端 API
// @version 1.0
// @description 单一学习者的自适应练习服务：掌握度引擎、练习组卷、本地与云端同步。
// @termsOfService http://swagger.io/terms/

// @contact.name API支持
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"practice_backend/internal/app"
	"practice_backend/internal/config"
	"practice_backend/pkg/logger"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "practice",
	Short: "Adaptive practice backend",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication()
		if err != nil {
			return err
		}
		defer logger.Log.Sync()

		application.ConfigFile = filepath.Join(configDir, "config.yaml")
		return application.Run()
	},
}

var importBankCmd = &cobra.Command{
	Use:   "import-bank",
	Short: "把 xlsx 题库转换为 JSON 题库",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		subject, _ := cmd.Flags().GetString("subject")
		moduleID, _ := cmd.Flags().GetString("module")
		sheet, _ := cmd.Flags().GetString("sheet")

		application, err := newApplication()
		if err != nil {
			return err
		}
		defer application.Close()

		res, err := application.ImportQuestionBank(file, subject, moduleID, sheet)
		if err != nil {
			return err
		}
		fmt.Printf("imported %s/%s: processed %d, created %d, updated %d, skipped %d, total %d\n",
			res.Subject, res.ModuleID, res.Processed, res.Created, res.Updated, res.Skipped, res.Total)
		for _, e := range res.Errors {
			fmt.Println("  ", e)
		}
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "立即备份学习数据",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newApplication()
		if err != nil {
			return err
		}
		defer application.Close()

		// 先对账，保证备份包含云端最新数据
		if err := application.Start(context.Background()); err != nil {
			return err
		}
		name, err := application.Backup(context.Background())
		if err != nil {
			return err
		}
		fmt.Println("backup written:", name)
		return nil
	},
}

func newApplication() (*app.App, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.InitLogger(cfg)
	return app.NewApp(cfg)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "configs", "配置文件目录")

	importBankCmd.Flags().String("file", "", "xlsx 文件路径")
	importBankCmd.Flags().String("subject", "", "科目，例如 math")
	importBankCmd.Flags().String("module", "", "模块 ID，例如 money")
	importBankCmd.Flags().String("sheet", "", "工作表名称，默认第一个")
	importBankCmd.MarkFlagRequired("file")
	importBankCmd.MarkFlagRequired("subject")
	importBankCmd.MarkFlagRequired("module")

	rootCmd.AddCommand(serveCmd, importBankCmd, backupCmd)
}

func main() {
	// 不带子命令时等同于 serve
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
