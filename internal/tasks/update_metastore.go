package tasks

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/charlesng35/metastore-admin/internal/metastore"
)

// ErrInvalidArgs is returned when task args cannot be interpreted.
var ErrInvalidArgs = errors.New("tasks: invalid args")

// MetastoreSyncer refreshes a metastore's cached schema.
type MetastoreSyncer interface {
	MarkSynced(ctx context.Context, id int64) error
}

// UpdateMetastore returns the handler of the metastore refresh task. Its
// single arg is the metastore id.
func UpdateMetastore(syncer MetastoreSyncer) Handler {
	return func(ctx context.Context, args []any) error {
		if len(args) != 1 {
			return fmt.Errorf("%w: %s expects one metastore id, got %d args", ErrInvalidArgs, metastore.UpdateTaskName, len(args))
		}
		id, err := metastoreID(args[0])
		if err != nil {
			return err
		}
		return syncer.MarkSynced(ctx, id)
	}
}

func metastoreID(arg any) (int64, error) {
	switch v := arg.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%w: metastore id %v is not an integer", ErrInvalidArgs, v)
		}
		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: metastore id %q: %v", ErrInvalidArgs, v, err)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: metastore id of type %T", ErrInvalidArgs, arg)
	}
}
