package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/importer"
)

var templateCmd = &cobra.Command{
	Use:   "template <kind>",
	Short: "가져오기용 빈 템플릿 생성",
	Long: `지정한 종류의 헤더와 예시 행이 담긴 템플릿을 출력합니다.
예시 행의 <fund id> 같은 자리표시자는 실제 ID로 바꿔야 합니다.

Example:
  go run ./cmd/holdings template fund
  go run ./cmd/holdings template investments --format json
  go run ./cmd/holdings template shipment --format xlsx --out shipments.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplate,
}

var (
	templateFormat string
	templateOut    string
)

func init() {
	rootCmd.AddCommand(templateCmd)

	templateCmd.Flags().StringVar(&templateFormat, "format", "csv", "템플릿 형식 (csv, json, xlsx)")
	templateCmd.Flags().StringVar(&templateOut, "out", "", "출력 파일 (기본: stdout, xlsx는 필수)")
}

func runTemplate(cmd *cobra.Command, args []string) error {
	kind, err := contracts.ParseKind(args[0])
	if err != nil {
		return err
	}
	format, err := importer.ParseFormat(templateFormat)
	if err != nil {
		return err
	}
	if format == importer.FormatXLSX && templateOut == "" {
		return fmt.Errorf("--out is required for xlsx templates")
	}

	data, err := importer.Template(kind, format)
	if err != nil {
		return err
	}

	if templateOut == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(templateOut, data, 0o644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "✅ %s template written to %s\n", kind, templateOut)
	return nil
}
