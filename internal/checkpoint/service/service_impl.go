package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	GenID      *snowflake.Node
	Repo       domain.Repository
	FieldRepo  fielddomain.Repository
	SensorRepo sensordomain.Repository
	PumpRepo   pumpdomain.Repository
	SensorSvc  sensordomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	genID      *snowflake.Node
	repo       domain.Repository
	fieldRepo  fielddomain.Repository
	sensorRepo sensordomain.Repository
	pumpRepo   pumpdomain.Repository
	sensorSvc  sensordomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("checkpoint.service"),
		clock:      p.Clock,
		genID:      p.GenID,
		repo:       p.Repo,
		fieldRepo:  p.FieldRepo,
		sensorRepo: p.SensorRepo,
		pumpRepo:   p.PumpRepo,
		sensorSvc:  p.SensorSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCheckpointRequest) (domain.Provisioned, error) {
	userID, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.Provisioned{}, err
	}
	fieldID, err := parseID(req.FieldID, domain.ErrInvalidID)
	if err != nil {
		return domain.Provisioned{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Provisioned{}, domain.ErrInvalidName
	}

	var out domain.Provisioned
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, err := s.fieldRepo.FindOwned(ctx, tx, fieldID, userID)
		if err != nil {
			return err
		}
		if field == nil {
			return domain.ErrFieldNotFound
		}

		now := s.clock.Now()
		checkpoint := domain.Checkpoint{
			ID:        s.genID.Generate(),
			FieldID:   field.ID,
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, &checkpoint); err != nil {
			return err
		}

		sensors, err := s.sensorSvc.SeedCheckpoint(ctx, tx, checkpoint.ID)
		if err != nil {
			return err
		}

		pump := &pumpdomain.Pump{
			ID:           s.genID.Generate(),
			CheckpointID: checkpoint.ID,
			Name:         pumpdomain.NameFor(checkpoint.Name),
		}
		if err := s.pumpRepo.Insert(ctx, tx, pump); err != nil {
			return err
		}

		out = domain.Provisioned{Checkpoint: checkpoint, Sensors: sensors, Pump: pump}
		return nil
	})
	if err != nil {
		return domain.Provisioned{}, err
	}

	s.log.Info("checkpoint created",
		zap.String("checkpoint_id", out.ID.String()),
		zap.String("field_id", out.FieldID.String()),
	)
	return out, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCheckpointRequest) (domain.Checkpoint, error) {
	userID, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.Checkpoint{}, err
	}
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Checkpoint{}, err
	}

	var out domain.Checkpoint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkpoint, err := s.repo.FindOwned(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return domain.ErrNotFound
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			checkpoint.Name = name
			checkpoint.UpdatedAt = s.clock.Now()
			if err := s.repo.UpdateName(ctx, tx, checkpoint); err != nil {
				return err
			}
		}
		out = *checkpoint
		return nil
	})
	if err != nil {
		return domain.Checkpoint{}, err
	}
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	owner, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	checkpointID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checkpoint, err := s.repo.FindOwned(ctx, tx, checkpointID, owner)
		if err != nil {
			return err
		}
		if checkpoint == nil {
			return domain.ErrNotFound
		}
		ids := []snowflake.ID{checkpoint.ID}
		if err := s.sensorRepo.DeleteByCheckpointIDs(ctx, tx, ids); err != nil {
			return err
		}
		if err := s.pumpRepo.DeleteByCheckpointIDs(ctx, tx, ids); err != nil {
			return err
		}
		return s.repo.DeleteByIDs(ctx, tx, ids)
	})
	if err != nil {
		return err
	}

	s.log.Info("checkpoint deleted", zap.String("checkpoint_id", checkpointID.String()))
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
