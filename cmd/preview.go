package cmd

import (
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "メールを送信せずに、ダイジェストの HTML を標準出力に表示します",
	Long:  `収集と絞り込みを実行し、送信される HTML 本文を標準出力に書き出します。Gmail の認証情報は不要です。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runDigest(cmd.Context(), true, cmd.OutOrStdout())
		return err
	},
}
