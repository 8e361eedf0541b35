package redis

import (
	"context"

	"github.com/arkosec/responder/logger"
	"github.com/arkosec/responder/model"
	"github.com/arkosec/responder/persistence"
	"github.com/arkosec/responder/util"
	"go.uber.org/zap"
)

const INCIDENT_KEY string = "INCIDENT"

var _ persistence.IncidentStore = new(redisIncidentStore)

type redisIncidentStore struct {
	baseDao
	codec util.Codec[model.Incident]
}

func NewRedisIncidentStore(conf Config) *redisIncidentStore {
	return &redisIncidentStore{
		baseDao: *newBaseDao(conf),
		codec:   util.JsonCodec[model.Incident]{},
	}
}

func (rs *redisIncidentStore) Save(inc model.Incident) error {
	key := rs.baseDao.getNamespaceKey(INCIDENT_KEY)
	ctx := context.Background()
	data, err := rs.codec.Marshal(inc)
	if err != nil {
		return err
	}
	if err := rs.baseDao.redisClient.HSet(ctx, key, []string{inc.Id, string(data)}).Err(); err != nil {
		logger.Error("error in saving incident", zap.String("incidentId", inc.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisIncidentStore) Get(id string) (*model.Incident, error) {
	key := rs.baseDao.getNamespaceKey(INCIDENT_KEY)
	ctx := context.Background()
	incStr, err := rs.baseDao.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		return nil, model.IncidentNotFoundError{IncidentId: id}
	}
	inc, err := rs.codec.Unmarshal([]byte(incStr))
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func (rs *redisIncidentStore) List() ([]model.Incident, error) {
	key := rs.baseDao.getNamespaceKey(INCIDENT_KEY)
	ctx := context.Background()
	values, err := rs.baseDao.redisClient.HVals(ctx, key).Result()
	if err != nil {
		logger.Error("error in listing incidents", zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	out := make([]model.Incident, 0, len(values))
	for _, v := range values {
		inc, err := rs.codec.Unmarshal([]byte(v))
		if err != nil {
			logger.Error("can not decode stored incident", zap.Error(err))
			continue
		}
		out = append(out, inc)
	}
	return out, nil
}

func (rs *redisIncidentStore) UpdateStatus(id string, status model.IncidentStatus) error {
	inc, err := rs.Get(id)
	if err != nil {
		return err
	}
	inc.Status = status
	return rs.Save(*inc)
}

func (rs *redisIncidentStore) AppendAutomatedAction(id string, action string) error {
	inc, err := rs.Get(id)
	if err != nil {
		return err
	}
	inc.AutomatedActions = append(inc.AutomatedActions, action)
	return rs.Save(*inc)
}

func (rs *redisIncidentStore) Archive(id string) error {
	return rs.UpdateStatus(id, model.INCIDENT_ARCHIVED)
}
