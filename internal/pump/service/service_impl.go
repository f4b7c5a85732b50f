package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	"github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("pump.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

func (s *Service) Control(ctx context.Context, id string, req domain.Control) (domain.State, error) {
	pumpID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || pumpID == 0 {
		return domain.State{}, domain.ErrInvalidID
	}

	var pump *domain.Pump
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.repo.FindByID(ctx, tx, pumpID)
		if err != nil {
			return err
		}
		if found == nil {
			return domain.ErrNotFound
		}

		var activatedAt *time.Time
		if req.IsOn {
			now := s.clock.Now()
			activatedAt = &now
			found.LastActivated = &now
		}
		found.IsOn = req.IsOn
		if err := s.repo.SetState(ctx, tx, []snowflake.ID{pumpID}, req.IsOn, activatedAt); err != nil {
			return err
		}
		pump = found
		return nil
	})
	if err != nil {
		return domain.State{}, err
	}

	s.metrics.RecordPumpSwitch(ctx, "manual", req.IsOn, 1)
	s.log.Info("pump switched",
		zap.String("pump_id", pump.ID.String()),
		zap.Bool("is_on", pump.IsOn),
	)

	return domain.State{
		ID:            pump.ID,
		Name:          pump.Name,
		IsOn:          pump.IsOn,
		LastActivated: pump.LastActivated,
	}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Pump, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}
	pumps := make([]domain.Pump, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		pumps = append(pumps, *item)
	}
	return pumps, nil
}

func (s *Service) SwitchCheckpoints(ctx context.Context, tx *gorm.DB, checkpointIDs []snowflake.ID, isOn bool) (int, error) {
	pumps, err := s.repo.ListByCheckpointIDs(ctx, tx, checkpointIDs)
	if err != nil {
		return 0, err
	}
	if len(pumps) == 0 {
		return 0, nil
	}

	ids := make([]snowflake.ID, 0, len(pumps))
	for _, p := range pumps {
		ids = append(ids, p.ID)
	}

	var activatedAt *time.Time
	if isOn {
		now := s.clock.Now()
		activatedAt = &now
	}
	if err := s.repo.SetState(ctx, tx, ids, isOn, activatedAt); err != nil {
		return 0, err
	}
	return len(ids), nil
}
