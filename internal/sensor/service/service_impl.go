package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	"github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	GenID          *snowflake.Node
	Repo           domain.Repository
	CheckpointRepo checkpointdomain.Repository
	Catalog        domain.Catalog
	Sampler        domain.Sampler
	Metrics        *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	genID          *snowflake.Node
	repo           domain.Repository
	checkpointRepo checkpointdomain.Repository
	catalog        domain.Catalog
	sampler        domain.Sampler
	metrics        *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("sensor.service"),
		clock:          p.Clock,
		genID:          p.GenID,
		repo:           p.Repo,
		checkpointRepo: p.CheckpointRepo,
		catalog:        p.Catalog,
		sampler:        p.Sampler,
		metrics:        p.Metrics,
	}
}

func (s *Service) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	// a tick that has begun runs to completion
	ctx = context.WithoutCancel(ctx)

	specs := s.catalog.Specs()
	if len(specs) == 0 {
		return domain.RefreshResult{}, domain.ErrEmptyCatalog
	}

	var result domain.RefreshResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkpointIDs, err := s.checkpointRepo.ListIDs(ctx, tx)
		if err != nil {
			return err
		}
		result.Checkpoints = len(checkpointIDs)
		if len(checkpointIDs) == 0 {
			return nil
		}

		existing, err := s.repo.ListByCheckpointIDs(ctx, tx, checkpointIDs)
		if err != nil {
			return err
		}
		index := make(map[snowflake.ID]map[domain.SensorType]*domain.Sensor, len(checkpointIDs))
		for _, sensor := range existing {
			byType, ok := index[sensor.CheckpointID]
			if !ok {
				byType = map[domain.SensorType]*domain.Sensor{}
				index[sensor.CheckpointID] = byType
			}
			byType[sensor.SensorType] = sensor
		}

		now := s.clock.Now()
		var inserts []*domain.Sensor
		for _, checkpointID := range checkpointIDs {
			for _, spec := range specs {
				value := s.sampler.Sample(spec)
				if current, ok := index[checkpointID][spec.Type]; ok {
					if err := s.repo.UpdateReading(ctx, tx, current.ID, value, spec.Unit, now); err != nil {
						return err
					}
					result.Updated++
					continue
				}
				inserts = append(inserts, &domain.Sensor{
					ID:           s.genID.Generate(),
					CheckpointID: checkpointID,
					SensorType:   spec.Type,
					Value:        value,
					Unit:         spec.Unit,
					ReadAt:       now,
				})
			}
		}
		if err := s.repo.InsertBatch(ctx, tx, inserts); err != nil {
			return err
		}
		result.Created = len(inserts)
		return nil
	})
	if err != nil {
		return domain.RefreshResult{}, err
	}

	if result.Checkpoints == 0 {
		s.log.Debug("sensor.refresh.completed", zap.Int("checkpoints", 0))
		return result, nil
	}

	s.metrics.RecordSensorReadings(ctx, "updated", result.Updated)
	s.metrics.RecordSensorReadings(ctx, "created", result.Created)
	s.log.Info("sensor.refresh.completed",
		zap.Int("checkpoints", result.Checkpoints),
		zap.Int("updated", result.Updated),
		zap.Int("created", result.Created),
	)
	return result, nil
}

func (s *Service) SeedCheckpoint(ctx context.Context, tx *gorm.DB, checkpointID snowflake.ID) ([]*domain.Sensor, error) {
	specs := s.catalog.Specs()
	if len(specs) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	now := s.clock.Now()
	sensors := make([]*domain.Sensor, 0, len(specs))
	for _, spec := range specs {
		sensors = append(sensors, &domain.Sensor{
			ID:           s.genID.Generate(),
			CheckpointID: checkpointID,
			SensorType:   spec.Type,
			Value:        s.sampler.Sample(spec),
			Unit:         spec.Unit,
			ReadAt:       now,
		})
	}
	if err := s.repo.InsertBatch(ctx, tx, sensors); err != nil {
		return nil, err
	}
	s.metrics.RecordSensorReadings(ctx, "seeded", len(sensors))
	return sensors, nil
}
