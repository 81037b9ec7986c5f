package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"

	"github.com/shouni/go-job-digest/internal/pipeline"
	"github.com/shouni/go-job-digest/pkg/config"
)

// --- グローバル定数 ---

const (
	appName           = "job-digest"
	defaultTimeoutSec = 15 // 秒
	defaultMaxRetries = 0  // 既定ではリトライしない
)

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec int           // --timeout タイムアウト
	MaxRetries int           // --max-retries リトライ回数
	Delay      time.Duration // --delay 取得ごとの待機時間
	Limit      int           // --limit 1回の取得で扱う最大件数
}

var Flags AppFlags

var (
	appConfig   config.Config
	appFetchers pipeline.Fetchers
)

// rootCmd は clibase が生成したルートコマンドに、ダイジェストの実行を割り当てたものです。
// --verbose と --config は clibase の共通フラグです。
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := clibase.NewRootCmd(appName, addAppPersistentFlags, initAppPreRunE)
	cmd.Short = "求人サイトを巡回し、条件に合う求人をメールで送信します"
	cmd.Long = `Indeed と Wellfound (任意で WeWorkRemotely) を職種キーワードごとに検索し、
キーワード、経験年数、勤務地で絞り込んだ求人一覧を HTML メールで送信します。
引数なしで実行すると、収集から送信までを1回実行して終了します。`
	cmd.Args = cobra.NoArgs
	cmd.SilenceUsage = true
	cmd.Run = nil
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		_, err := runDigest(cmd.Context(), false, nil)
		return err
	}
	return cmd
}

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(&Flags.TimeoutSec, "timeout", defaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	rootCmd.PersistentFlags().IntVar(&Flags.MaxRetries, "max-retries", defaultMaxRetries, "HTTPリクエストのリトライ最大回数")
	rootCmd.PersistentFlags().DurationVar(&Flags.Delay, "delay", config.DefaultDelay, "各取得の後に待機する時間")
	rootCmd.PersistentFlags().IntVar(&Flags.Limit, "limit", config.DefaultLimit, "1回の取得で抽出する最大件数")
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// 設定を読み込み、明示されたフラグで上書きしてから共有フェッチャーを初期化します。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(clibase.Flags.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = time.Duration(Flags.TimeoutSec) * time.Second
	}
	if flags.Changed("max-retries") {
		if Flags.MaxRetries < 0 {
			return fmt.Errorf("--max-retries は0以上である必要があります: %d", Flags.MaxRetries)
		}
		cfg.HTTP.MaxRetries = uint64(Flags.MaxRetries)
	}
	if flags.Changed("delay") {
		cfg.HTTP.Delay = Flags.Delay
	}
	if flags.Changed("limit") {
		cfg.HTTP.Limit = Flags.Limit
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("設定が不正です: %w", err)
	}

	if clibase.Flags.Verbose {
		log.Printf("HTTPクライアントのタイムアウトを設定しました (Timeout: %s)。", cfg.HTTP.Timeout)
		log.Printf("HTTPクライアントのリトライ回数を設定しました (MaxRetries: %d)。", cfg.HTTP.MaxRetries)
		log.Printf("検索キーワード: %d 件, 待機時間: %s", len(cfg.Search.Keywords), cfg.HTTP.Delay)
	}

	appConfig = cfg
	appFetchers = pipeline.NewFetchers(cfg)
	return nil
}

// runDigest は、読み込んだ設定で1回分のパイプラインを実行します。
func runDigest(ctx context.Context, dryRun bool, out io.Writer) (pipeline.Summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	deps, err := pipeline.NewDeps(appConfig, appFetchers)
	if err != nil {
		return pipeline.Summary{}, err
	}
	deps.DryRun = dryRun
	deps.Verbose = clibase.Flags.Verbose
	deps.Output = out

	summary, err := pipeline.Run(ctx, deps)
	if err != nil {
		return summary, err
	}
	log.Printf("完了: 収集 %d 件, 一致 %d 件 (%s)", summary.Collected, summary.Matched, summary.Subject)
	return summary, nil
}

// --- エントリポイント ---

// Execute は rootCmd を実行します。
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(previewCmd, collectCmd)
}
