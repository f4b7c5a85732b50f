package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	"github.com/smallbiznis/fieldwatch/internal/field/domain"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/pkg/db"
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
	Overview       domain.OverviewReader
	CheckpointRepo checkpointdomain.Repository
	SensorRepo     sensordomain.Repository
	PumpRepo       pumpdomain.Repository
	TriggerRepo    triggerdomain.Repository
	Catalog        sensordomain.Catalog
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	genID          *snowflake.Node
	repo           domain.Repository
	overview       domain.OverviewReader
	checkpointRepo checkpointdomain.Repository
	sensorRepo     sensordomain.Repository
	pumpRepo       pumpdomain.Repository
	triggerRepo    triggerdomain.Repository
	catalog        sensordomain.Catalog
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("field.service"),
		clock:          p.Clock,
		genID:          p.GenID,
		repo:           p.Repo,
		overview:       p.Overview,
		checkpointRepo: p.CheckpointRepo,
		sensorRepo:     p.SensorRepo,
		pumpRepo:       p.PumpRepo,
		triggerRepo:    p.TriggerRepo,
		catalog:        p.Catalog,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]domain.Overview, error) {
	owner, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}

	fields, err := s.overview.ListOverview(ctx, owner)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	specs := s.catalog.Specs()
	for i := range fields {
		for j := range fields[i].Checkpoints {
			sensors := fields[i].Checkpoints[j].Sensors
			if sensors == nil {
				sensors = map[string]domain.SensorReading{}
				fields[i].Checkpoints[j].Sensors = sensors
			}
			for _, spec := range specs {
				if _, ok := sensors[string(spec.Type)]; ok {
					continue
				}
				sensors[string(spec.Type)] = domain.SensorReading{
					Value:     0,
					Unit:      spec.Unit,
					Timestamp: now,
				}
			}
		}
	}
	return fields, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateFieldRequest) (domain.Field, error) {
	owner, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.Field{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Field{}, domain.ErrInvalidName
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		city = domain.DefaultCity
	}

	now := s.clock.Now()
	field := domain.Field{
		ID:        s.genID.Generate(),
		Name:      name,
		City:      city,
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.repo.NameTaken(ctx, tx, owner, name, 0)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrDuplicateName
		}
		return s.repo.Insert(ctx, tx, &field)
	})
	if err != nil {
		// the unique index still guards concurrent creates
		if db.IsDuplicateKeyErr(err) {
			return domain.Field{}, domain.ErrDuplicateName
		}
		return domain.Field{}, err
	}

	s.log.Info("field created",
		zap.String("field_id", field.ID.String()),
		zap.String("user_id", owner.String()),
	)
	return field, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateFieldRequest) (domain.Field, error) {
	owner, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.Field{}, err
	}
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.Field{}, err
	}

	var out domain.Field
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, err := s.repo.FindOwned(ctx, tx, id, owner)
		if err != nil {
			return err
		}
		if field == nil {
			return domain.ErrNotFound
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return domain.ErrInvalidName
			}
			if name != field.Name {
				taken, err := s.repo.NameTaken(ctx, tx, owner, name, field.ID)
				if err != nil {
					return err
				}
				if taken {
					return domain.ErrDuplicateName
				}
			}
			field.Name = name
		}
		if req.City != nil {
			city := strings.TrimSpace(*req.City)
			if city == "" {
				city = domain.DefaultCity
			}
			field.City = city
		}

		field.UpdatedAt = s.clock.Now()
		if err := s.repo.Update(ctx, tx, field); err != nil {
			return err
		}
		out = *field
		return nil
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Field{}, domain.ErrDuplicateName
		}
		return domain.Field{}, err
	}
	return out, nil
}

// Delete removes the field together with its trigger tasks, checkpoints, sensors and pumps.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	owner, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	fieldID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, err := s.repo.FindOwned(ctx, tx, fieldID, owner)
		if err != nil {
			return err
		}
		if field == nil {
			return domain.ErrNotFound
		}

		if err := s.triggerRepo.DeleteByFieldID(ctx, tx, field.ID); err != nil {
			return err
		}

		checkpointIDs, err := s.checkpointRepo.ListIDsByField(ctx, tx, field.ID)
		if err != nil {
			return err
		}
		removed = len(checkpointIDs)
		if len(checkpointIDs) > 0 {
			if err := s.sensorRepo.DeleteByCheckpointIDs(ctx, tx, checkpointIDs); err != nil {
				return err
			}
			if err := s.pumpRepo.DeleteByCheckpointIDs(ctx, tx, checkpointIDs); err != nil {
				return err
			}
			if err := s.checkpointRepo.DeleteByIDs(ctx, tx, checkpointIDs); err != nil {
				return err
			}
		}
		return s.repo.Delete(ctx, tx, field.ID)
	})
	if err != nil {
		return err
	}

	s.log.Info("field deleted",
		zap.String("field_id", fieldID.String()),
		zap.Int("checkpoints_removed", removed),
	)
	return nil
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}
