package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
	output  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Holdings - 펀드/투자/학생/차량 레코드 일괄 가져오기 및 지표 계산",
	Long: `Holdings Unified CLI

스키마 검증된 CSV/JSON/XLSX 일괄 가져오기, 파생 지표(DPI, TVPI, MOIC, IRR),
필터/정렬 조회를 하나의 워크스페이스에서 제공합니다.
저장소는 STORAGE_DRIVER (memory|fs|redis|postgres|sqlite|s3)로 선택합니다.

Usage:
  go run ./cmd/holdings [command]

Examples:
  go run ./cmd/holdings template investment --format csv
  go run ./cmd/holdings import funds ./funds.csv
  go run ./cmd/holdings list investments --where status=Active --sort irr --desc
  go run ./cmd/holdings summary`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "출력 형식 (text, json)")
}
