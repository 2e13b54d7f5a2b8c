package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JackieWYB/majiang-sub000/cmd/server/app"
	"github.com/JackieWYB/majiang-sub000/common/config"
	"github.com/JackieWYB/majiang-sub000/common/log"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "三人麻将对局服务",
	Long:  `三人麻将对局服务，同一进程承载房间、对局、长连接和 HTTP 接口`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := config.Load(configFile); err != nil {
			log.Fatal("文件配置发生错误：%v", err)
		}
		log.InitLog(config.Conf.ID, config.Conf.LogConf.Level)
		log.Info(fmt.Sprintf("配置文件: %+v", config.Conf))

		if err := app.Run(context.Background()); err != nil {
			log.Error("发生异常: %v", err)
			os.Exit(-1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "configFile", "", "resource file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("error happen: %#v", err)
		os.Exit(1)
	}
}
