package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/contracts"
	"github.com/wonny/holdings/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <kind> <file>",
	Short: "CSV/JSON/XLSX 파일 일괄 가져오기",
	Long: `파일 하나를 지정한 종류의 레코드로 가져옵니다.

처리 순서:
1. 헤더 검증 (누락/중복 헤더 → 전체 중단, 추가 헤더 → 무시)
2. 행 파싱 (잘못된 행은 사유와 함께 건너뜀)
3. 파생 지표 계산 후 한 번에 저장

Example:
  go run ./cmd/holdings import funds ./funds.csv
  go run ./cmd/holdings import investment ./investments.xlsx
  go run ./cmd/holdings import shipments - --format json < shipments.json`,
	Args: cobra.ExactArgs(2),
	RunE: runImport,
}

var (
	importFormat  string
	importTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "", "파일 형식 (csv, json, xlsx; 기본: 확장자로 판별)")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Minute, "가져오기 제한 시간")
}

func runImport(cmd *cobra.Command, args []string) error {
	kind, err := contracts.ParseKind(args[0])
	if err != nil {
		return err
	}
	format, err := importFormatFor(args[1])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, importTimeout)
		defer cancel()
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	in := cmd.InOrStdin()
	if args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("%w: %v", contracts.ErrUnreadable, err)
		}
		defer f.Close()
		in = f
	}

	var slot importer.Slot
	data, err := slot.Begin().Read(ctx, in)
	if err != nil {
		return err
	}

	log := a.log.Component("cli").WithFields(map[string]interface{}{
		"kind":   kind,
		"file":   filepath.Base(args[1]),
		"format": format,
	})
	report, err := a.ws.Import(ctx, kind, format, data)

	out := cmd.OutOrStdout()
	if wantJSON() && report != nil {
		if jerr := writeJSON(out, importView(report, err)); jerr != nil {
			return jerr
		}
		return err
	}

	p := a.printer(out)
	p.Header(fmt.Sprintf("Import %s ← %s", kind.Collection(), filepath.Base(args[1])))
	if report != nil {
		p.KeyValue("Rows", fmt.Sprint(report.Rows), 9)
		p.KeyValue("Imported", fmt.Sprint(report.Succeeded()), 9)
		p.KeyValue("Skipped", fmt.Sprint(report.Failed()), 9)
		if len(report.Ignored) > 0 {
			p.KeyValue("Ignored", strings.Join(report.Ignored, ", "), 9)
		}
		p.Separator()
	}
	if err != nil {
		log.WithError(err).Error("Import failed")
		p.Error(err.Error())
		return err
	}

	if report.Failed() > 0 {
		p.Warning(report.Summary())
		failures := make([]string, len(report.Failures))
		for i, f := range report.Failures {
			failures[i] = f.Error()
		}
		p.List(failures)
	} else {
		p.Success(report.Summary())
	}
	log.WithField("imported", report.Succeeded()).Info("Import finished")
	return nil
}

// importFormatFor resolves --format or falls back to the file extension
func importFormatFor(path string) (importer.Format, error) {
	if importFormat != "" {
		return importer.ParseFormat(importFormat)
	}
	if path == "-" {
		return "", fmt.Errorf("--format is required when reading stdin")
	}
	return importer.DetectFormat(path)
}

type importResult struct {
	*importer.Report
	Outcome string   `json:"summary"`
	IDs     []string `json:"ids,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func importView(r *importer.Report, err error) importResult {
	v := importResult{Report: r, Outcome: r.Summary()}
	for _, item := range r.Imported {
		v.IDs = append(v.IDs, item.EntityID())
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}
