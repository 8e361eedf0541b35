package redis

import (
	"context"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/persistence"
	"github.com/arkosec/responder/util"
	"go.uber.org/zap"
)

const EXECUTION_KEY string = "EXEC"

var _ persistence.ExecutionArchive = new(redisExecutionArchive)

// redisExecutionArchive keeps terminal executions in a redis hash keyed by
// execution id, for audit across restarts.
type redisExecutionArchive struct {
	baseDao
	codec util.Codec[model.Execution]
}

func NewRedisExecutionArchive(conf Config) *redisExecutionArchive {
	return &redisExecutionArchive{
		baseDao: *newBaseDao(conf),
		codec:   util.JsonCodec[model.Execution]{},
	}
}

func (ra *redisExecutionArchive) Save(exec model.Execution) error {
	key := ra.baseDao.getNamespaceKey(EXECUTION_KEY)
	ctx := context.Background()
	data, err := ra.codec.Marshal(exec)
	if err != nil {
		return err
	}
	if err := ra.baseDao.redisClient.HSet(ctx, key, []string{exec.Id, string(data)}).Err(); err != nil {
		logger.Error("error in saving execution", zap.String("executionId", exec.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (ra *redisExecutionArchive) Get(id string) (*model.Execution, error) {
	key := ra.baseDao.getNamespaceKey(EXECUTION_KEY)
	ctx := context.Background()
	execStr, err := ra.baseDao.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		return nil, model.ExecutionNotFoundError{ExecutionId: id}
	}
	exec, err := ra.codec.Unmarshal([]byte(execStr))
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

func (ra *redisExecutionArchive) List() ([]model.Execution, error) {
	key := ra.baseDao.getNamespaceKey(EXECUTION_KEY)
	ctx := context.Background()
	values, err := ra.baseDao.redisClient.HVals(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing executions", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.Execution, 0, len(values))
	for _, v := range values {
		exec, err := ra.codec.Unmarshal([]byte(v))
		if err != nil {
			logger.Error("can not decode archived execution", zap.Error(err))
			continue
		}
		out = append(out, exec)
	}
	return out, nil
}
