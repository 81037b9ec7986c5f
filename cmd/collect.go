package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shouni/go-job-digest/internal/pipeline"
	"github.com/shouni/go-job-digest/pkg/scraper"
	"github.com/shouni/go-job-digest/pkg/types"
)

var collectKeywords []string // --keyword フラグで受け取る検索キーワード

// printCollectResults は、ソースごとの取得結果を出力し、成功件数と失敗件数を返します。
func printCollectResults(w io.Writer, results []types.SourceResult) (successCount, errorCount int) {
	fmt.Fprintln(w, "--- 取得結果 ---")

	for i, res := range results {
		if !res.OK() {
			errorCount++
			fmt.Fprintf(w, "❌ [%d] %s (%q)\n", i+1, res.Source, res.Keyword)
			fmt.Fprintf(w, "     エラー: %v\n", res.Err)
			continue
		}
		successCount++
		fmt.Fprintf(w, "✅ [%d] %s (%q): %d 件\n", i+1, res.Source, res.Keyword, len(res.Jobs))
		for _, job := range res.Jobs {
			fmt.Fprintf(w, "     - %s | %s\n", job.Title, job.Link)
		}
	}

	fmt.Fprintln(w, "----------------")
	fmt.Fprintf(w, "完了: 成功 %d 件, 失敗 %d 件\n", successCount, errorCount)
	return successCount, errorCount
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "各ソースの取得結果を絞り込み前の状態で表示します",
	Long:  `すべてのソースをキーワードごとに順に呼び出し、取得できた求人またはエラーをソースごとに表示します。メールは送信しません。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := pipeline.NewSources(appConfig, appFetchers)
		if err != nil {
			return err
		}

		keywords := appConfig.Search.Keywords
		if len(collectKeywords) > 0 {
			keywords = collectKeywords
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()

		log.Printf("取得開始 (ソース数: %d, キーワード数: %d, 待機時間: %s)", len(sources), len(keywords), appConfig.HTTP.Delay)

		s := scraper.NewSequentialScraper(sources, appConfig.HTTP.Delay)
		printCollectResults(cmd.OutOrStdout(), s.FetchAll(ctx, keywords))
		return nil
	},
}

func init() {
	collectCmd.Flags().StringSliceVarP(&collectKeywords, "keyword", "k", nil,
		"検索キーワード (複数指定可、未指定の場合は設定のキーワード)")
}
