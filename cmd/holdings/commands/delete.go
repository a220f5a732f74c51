package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/contracts"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <id>",
	Short: "레코드 삭제 (연쇄 정책 적용)",
	Long: `레코드 하나를 삭제합니다.

연쇄 정책:
- fund     → 소속 investment 함께 삭제
- student  → 소속 progress 함께 삭제
- vehicle  → 배정된 shipment의 vehicleId 해제 (In Transit 배송이 있으면 거부)

Example:
  go run ./cmd/holdings delete fund 5f0c...
  go run ./cmd/holdings delete vehicles 9a1e... --output json`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	kind, err := contracts.ParseKind(args[0])
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.ws.Delete(ctx, kind, args[1])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if wantJSON() {
		return writeJSON(out, res)
	}

	p := a.printer(out)
	p.Success(fmt.Sprintf("Deleted %s %s", kind, res.ID))
	if len(res.Removed) > 0 {
		p.Info(fmt.Sprintf("Removed %d dependent record(s)", len(res.Removed)))
		p.List(res.Removed)
	}
	if len(res.Unassigned) > 0 {
		p.Info(fmt.Sprintf("Unassigned %d shipment(s)", len(res.Unassigned)))
		p.List(res.Unassigned)
	}
	return nil
}
