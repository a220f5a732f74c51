package commands

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/holdings/internal/storage"
	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/logger"
)

// sentinelKey is written and read back by check-storage
const sentinelKey = "healthcheck"

var checkStorageCmd = &cobra.Command{
	Use:   "check-storage",
	Short: "저장소 연결 테스트",
	Long: `설정된 저장소 드라이버에 연결해 확인용 값을 쓰고 다시 읽습니다.

이 명령어는:
- config에서 STORAGE_DRIVER 로드
- 저장소 연결 생성
- 확인용 값 저장 후 재조회
- 응답 시간 표시

Example:
  go run ./cmd/holdings check-storage
  STORAGE_DRIVER=redis go run ./cmd/holdings check-storage`,
	Args: cobra.NoArgs,
	RunE: runCheckStorage,
}

func init() {
	rootCmd.AddCommand(checkStorageCmd)
}

func runCheckStorage(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	p := newPrinter(cmd.OutOrStdout(), cfg.Currency)
	p.Header("Storage Connection Test")
	p.KeyValue("ENV", cfg.Env, 8)
	p.KeyValue("Driver", cfg.Storage.Driver, 8)

	ctx, cancel := context.WithTimeout(commandContext(cmd), 10*time.Second)
	defer cancel()

	bridge, err := storage.Open(ctx, cfg, logger.New(cfg))
	if err != nil {
		p.Error(err.Error())
		return err
	}
	defer bridge.Close()
	p.Success("Storage opened")

	elapsed, err := roundTrip(ctx, bridge)
	if err != nil {
		p.Error(err.Error())
		return err
	}
	p.Success(fmt.Sprintf("Round trip OK in %v", elapsed.Round(time.Microsecond)))
	return nil
}

// roundTrip writes a timestamp under sentinelKey and reads it back
func roundTrip(ctx context.Context, b storage.Bridge) (time.Duration, error) {
	start := time.Now()
	want := []byte(fmt.Sprintf(`{"checked_at":%q}`, start.UTC().Format(time.RFC3339Nano)))
	if err := b.Save(ctx, sentinelKey, want); err != nil {
		return 0, fmt.Errorf("save sentinel: %w", err)
	}
	got, found, err := b.Load(ctx, sentinelKey)
	if err != nil {
		return 0, fmt.Errorf("load sentinel: %w", err)
	}
	if !found || !bytes.Equal(got, want) {
		return 0, fmt.Errorf("sentinel mismatch on %s driver", b.Driver())
	}
	return time.Since(start), nil
}
