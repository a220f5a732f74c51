// Package storage is the persistence bridge: an opaque load/save of one
// blob per collection key, with interchangeable drivers behind it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/wonny/holdings/pkg/config"
	"github.com/wonny/holdings/pkg/logger"
)

// Bridge loads and saves whole-collection blobs
// ⭐ 계약: 코어는 Load/Save만 호출, 저장소 세부사항은 드라이버가 숨김
type Bridge interface {
	// Load returns found=false (and no error) when key has never been saved
	Load(ctx context.Context, key string) (blob []byte, found bool, err error)
	Save(ctx context.Context, key string, blob []byte) error
	Driver() string
	Close() error
}

// ErrUnknownDriver is returned by Open for an unsupported driver name
var ErrUnknownDriver = errors.New("storage: unknown driver")

// ErrInvalidKey rejects keys that are not safe as file names or object keys
var ErrInvalidKey = errors.New("storage: invalid key")

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

func checkKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Open builds the bridge selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (Bridge, error) {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Component("storage").WithField("driver", cfg.Storage.Driver)

	var (
		b   Bridge
		err error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		b = NewMemory()
	case config.DriverFilesystem:
		b, err = NewFilesystem(cfg.Storage.Dir)
	case config.DriverRedis:
		b, err = OpenRedis(ctx, cfg)
	case config.DriverPostgres:
		b, err = OpenPostgres(ctx, cfg)
	case config.DriverSQLite:
		b, err = NewSQLite(ctx, cfg.Storage.SQLitePath)
	case config.DriverS3:
		b, err = OpenS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
	if err != nil {
		log.WithError(err).Error("Failed to open storage")
		return nil, err
	}

	log.Debug("Storage opened")
	return &logged{Bridge: b, log: log}, nil
}

// logged records every bridge call at debug level
type logged struct {
	Bridge
	log *logger.Logger
}

func (l *logged) Load(ctx context.Context, key string) ([]byte, bool, error) {
	blob, found, err := l.Bridge.Load(ctx, key)
	if err != nil {
		l.log.WithError(err).WithField("key", key).Error("Load failed")
		return nil, false, err
	}
	l.log.WithFields(map[string]interface{}{"key": key, "found": found, "bytes": len(blob)}).Debug("Loaded")
	return blob, found, nil
}

func (l *logged) Save(ctx context.Context, key string, blob []byte) error {
	if err := l.Bridge.Save(ctx, key, blob); err != nil {
		l.log.WithError(err).WithField("key", key).Error("Save failed")
		return err
	}
	l.log.WithFields(map[string]interface{}{"key": key, "bytes": len(blob)}).Debug("Saved")
	return nil
}
