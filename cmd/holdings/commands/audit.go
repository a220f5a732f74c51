package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/contracts"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "저장된 파생 지표 감사",
	Long: `저장된 파생 값(DPI, TVPI, MOIC, IRR, transitDays)을 다시 계산해
저장 당시 값과 다른 레코드를 보고합니다.
존재하지 않는 부모를 가리키는 레코드도 함께 보고합니다.
--fix를 주면 다시 계산한 값을 저장합니다.

Example:
  go run ./cmd/holdings audit
  go run ./cmd/holdings audit --fix`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var auditFix bool

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().BoolVar(&auditFix, "fix", false, "다시 계산한 값을 저장")
}

type auditResult struct {
	Drift    map[contracts.Kind][]string `json:"drift"`
	Dangling map[contracts.Kind][]string `json:"dangling,omitempty"`
	Repaired []contracts.Kind            `json:"repaired,omitempty"`
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res := auditResult{Drift: a.ws.Drift(), Dangling: a.ws.Dangling()}
	if auditFix && len(res.Drift) > 0 {
		if res.Repaired, err = a.ws.Repair(ctx); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, res)
	}

	p := a.printer(out)
	p.Header("Derived Field Audit")
	for _, kind := range contracts.Kinds() {
		if ids := res.Dangling[kind]; len(ids) > 0 {
			p.Warning(fmt.Sprintf("%s: %d record(s) reference a missing parent", kind.Collection(), len(ids)))
			p.List(ids)
		}
	}
	if len(res.Drift) == 0 {
		p.Success("No drift: stored derived fields match a fresh computation")
		return nil
	}
	for _, kind := range contracts.Kinds() {
		ids := res.Drift[kind]
		if len(ids) == 0 {
			continue
		}
		p.Warning(fmt.Sprintf("%s: %d drifted record(s)", kind.Collection(), len(ids)))
		p.List(ids)
	}
	if len(res.Repaired) > 0 {
		p.Success(fmt.Sprintf("Rewrote %d collection(s)", len(res.Repaired)))
	} else {
		p.Info("Run with --fix to persist the recomputed values")
	}
	return nil
}
