package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/contracts"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "워크스페이스 요약 (건수, 펀드 합계, 포트폴리오 지표)",
	Long: `모든 컬렉션의 건수와 상태별 분포, 펀드 합계(DPI/TVPI),
투자 포트폴리오 합계(투자금, 평가액, MOIC)를 출력합니다.

Example:
  go run ./cmd/holdings summary
  go run ./cmd/holdings summary --output json`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.ws.Summary()
	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, s)
	}

	p := a.printer(out)
	p.Header("Workspace Summary")
	for _, kind := range contracts.Kinds() {
		p.KeyValue(kind.Collection(), fmt.Sprintf("%d  %s", s.Counts[kind], statusLine(s.Statuses[kind])), 12)
	}

	p.Header("Funds")
	p.KeyValue("AUM", p.Money(s.Funds.AUM), 12)
	p.KeyValue("Commitments", p.Money(s.Funds.Commitments), 12)
	p.KeyValue("Called", p.Money(s.Funds.Called), 12)
	p.KeyValue("Distributed", p.Money(s.Funds.Distributed), 12)
	p.KeyValue("NAV", p.Money(s.Funds.NAV), 12)
	p.KeyValue("DPI", fmt.Sprintf("%.1fx", s.Funds.DPI), 12)
	p.KeyValue("TVPI", fmt.Sprintf("%.1fx", s.Funds.TVPI), 12)

	p.Header("Portfolio")
	p.KeyValue("Positions", fmt.Sprintf("%d (%d realised)", s.Portfolio.Positions, s.Portfolio.Realized), 12)
	p.KeyValue("Invested", p.Money(s.Portfolio.Invested), 12)
	p.KeyValue("Value", p.Money(s.Portfolio.Value), 12)
	p.KeyValue("Realised", p.Money(s.Portfolio.RealizedValue), 12)
	p.KeyValue("Unrealised", p.Money(s.Portfolio.UnrealizedValue), 12)
	p.KeyValue("MOIC", fmt.Sprintf("%.1fx", s.Portfolio.MOIC), 12)
	return nil
}

// statusLine renders status counts as "(Active 3, Closed 1)"
func statusLine(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
