package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/bwmarrin/snowflake"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	fielddomain "github.com/smallbiznis/fieldwatch/internal/field/domain"
	obsmetrics "github.com/smallbiznis/fieldwatch/internal/observability/metrics"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	Clock          clock.Clock
	GenID          *snowflake.Node
	Repo           domain.Repository
	FieldRepo      fielddomain.Repository
	CheckpointRepo checkpointdomain.Repository
	PumpRepo       pumpdomain.Repository
	PumpSvc        pumpdomain.Service
	Metrics        *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	clock          clock.Clock
	genID          *snowflake.Node
	repo           domain.Repository
	fieldRepo      fielddomain.Repository
	checkpointRepo checkpointdomain.Repository
	pumpRepo       pumpdomain.Repository
	pumpSvc        pumpdomain.Service
	metrics        *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("triggertask.service"),
		clock:          p.Clock,
		genID:          p.GenID,
		repo:           p.Repo,
		fieldRepo:      p.FieldRepo,
		checkpointRepo: p.CheckpointRepo,
		pumpRepo:       p.PumpRepo,
		pumpSvc:        p.PumpSvc,
		metrics:        p.Metrics,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListTriggerTasksRequest) ([]domain.TriggerTask, error) {
	userID, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return nil, err
	}
	filter := domain.ListFilter{UserID: userID}
	if strings.TrimSpace(req.FieldID) != "" {
		fieldID, err := parseID(req.FieldID, domain.ErrInvalidID)
		if err != nil {
			return nil, err
		}
		filter.FieldID = &fieldID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	tasks := make([]domain.TriggerTask, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		tasks = append(tasks, *item)
	}
	return tasks, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateTriggerTaskRequest) (domain.TriggerTask, error) {
	userID, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	fieldID, err := parseID(req.FieldID, domain.ErrInvalidID)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.TriggerTask{}, domain.ErrInvalidName
	}
	metric, err := rule.ParseMetric(req.WeatherMetric)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	condition, err := rule.ParseCondition(req.Condition)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	action, err := rule.ParseAction(req.Action)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	if !finite(req.Threshold) {
		return domain.TriggerTask{}, domain.ErrInvalidThreshold
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	task := domain.TriggerTask{
		ID:            s.genID.Generate(),
		FieldID:       fieldID,
		Name:          name,
		WeatherMetric: metric,
		Condition:     condition,
		Threshold:     req.Threshold,
		Action:        action,
		IsActive:      isActive,
		CreatedAt:     s.clock.Now(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, err := s.fieldRepo.FindOwned(ctx, tx, fieldID, userID)
		if err != nil {
			return err
		}
		if field == nil {
			return domain.ErrFieldNotFound
		}
		return s.repo.Insert(ctx, tx, &task)
	})
	if err != nil {
		return domain.TriggerTask{}, err
	}

	s.log.Info("trigger task created",
		zap.String("task_id", task.ID.String()),
		zap.String("field_id", task.FieldID.String()),
		zap.String("weather_metric", string(task.WeatherMetric)),
	)
	return task, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateTriggerTaskRequest) (domain.TriggerTask, error) {
	userID, err := parseID(req.UserID, domain.ErrInvalidUser)
	if err != nil {
		return domain.TriggerTask{}, err
	}
	id, err := parseID(req.ID, domain.ErrInvalidID)
	if err != nil {
		return domain.TriggerTask{}, err
	}

	var out domain.TriggerTask
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := s.repo.FindOwned(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrNotFound
		}
		if err := applyUpdate(task, req); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, task); err != nil {
			return err
		}
		out = *task
		return nil
	})
	if err != nil {
		return domain.TriggerTask{}, err
	}
	return out, nil
}

func applyUpdate(task *domain.TriggerTask, req domain.UpdateTriggerTaskRequest) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.ErrInvalidName
		}
		task.Name = name
	}
	if req.WeatherMetric != nil {
		metric, err := rule.ParseMetric(*req.WeatherMetric)
		if err != nil {
			return err
		}
		task.WeatherMetric = metric
	}
	if req.Condition != nil {
		condition, err := rule.ParseCondition(*req.Condition)
		if err != nil {
			return err
		}
		task.Condition = condition
	}
	if req.Threshold != nil {
		if !finite(*req.Threshold) {
			return domain.ErrInvalidThreshold
		}
		task.Threshold = *req.Threshold
	}
	if req.Action != nil {
		action, err := rule.ParseAction(*req.Action)
		if err != nil {
			return err
		}
		task.Action = action
	}
	if req.IsActive != nil {
		task.IsActive = *req.IsActive
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	owner, err := parseID(userID, domain.ErrInvalidUser)
	if err != nil {
		return err
	}
	taskID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		task, err := s.repo.FindOwned(ctx, tx, taskID, owner)
		if err != nil {
			return err
		}
		if task == nil {
			return domain.ErrNotFound
		}
		return s.repo.Delete(ctx, tx, task.ID)
	})
}

func (s *Service) Evaluate(ctx context.Context, id string, weather rule.WeatherData) (domain.EvaluationResult, error) {
	taskID, err := parseID(id, domain.ErrInvalidID)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	task, err := s.repo.FindByID(ctx, s.db, taskID)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	if task == nil {
		return domain.EvaluationResult{}, domain.ErrNotFound
	}

	if !task.IsActive {
		s.metrics.RecordTriggerEvaluation(ctx, string(task.WeatherMetric), "inactive")
		return domain.EvaluationResult{
			TaskID:    task.ID,
			Triggered: false,
			Message:   domain.MessageInactive,
		}, nil
	}

	observed, ok := weather.Lookup(task.WeatherMetric)
	if !ok {
		s.metrics.RecordTriggerEvaluation(ctx, string(task.WeatherMetric), "missing_metric")
		return domain.EvaluationResult{}, &domain.MissingMetricError{Metric: task.WeatherMetric}
	}

	threshold := task.Threshold
	if !task.Condition.Holds(observed, threshold) {
		s.metrics.RecordTriggerEvaluation(ctx, string(task.WeatherMetric), "not_met")
		return domain.EvaluationResult{
			TaskID:       task.ID,
			Triggered:    false,
			Message:      domain.MessageNotMet,
			WeatherValue: &observed,
			Threshold:    &threshold,
		}, nil
	}

	affected, err := s.execute(ctx, task, weather)
	if err != nil {
		return domain.EvaluationResult{}, err
	}

	s.metrics.RecordTriggerEvaluation(ctx, string(task.WeatherMetric), "triggered")
	if on, known := task.Action.PumpState(); known {
		s.metrics.RecordPumpSwitch(ctx, "trigger", on, affected)
	}
	s.log.Info("trigger task fired",
		zap.String("task_id", task.ID.String()),
		zap.String("action", string(task.Action)),
		zap.Float64("weather_value", observed),
		zap.Float64("threshold", threshold),
		zap.Int("pumps_affected", affected),
	)

	return domain.EvaluationResult{
		TaskID:        task.ID,
		Triggered:     true,
		Message:       fmt.Sprintf(domain.MessageConditionMet, task.Action, affected),
		WeatherValue:  &observed,
		Threshold:     &threshold,
		PumpsAffected: &affected,
	}, nil
}

// execute applies the task action to every pump of its field and stamps the task, all or nothing.
func (s *Service) execute(ctx context.Context, task *domain.TriggerTask, weather rule.WeatherData) (int, error) {
	var affected int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		field, err := s.fieldRepo.FindByID(ctx, tx, task.FieldID)
		if err != nil {
			return err
		}
		if field == nil {
			return domain.ErrFieldNotFound
		}

		checkpointIDs, err := s.checkpointRepo.ListIDsByField(ctx, tx, field.ID)
		if err != nil {
			return err
		}

		if on, known := task.Action.PumpState(); known {
			affected, err = s.pumpSvc.SwitchCheckpoints(ctx, tx, checkpointIDs, on)
			if err != nil {
				return err
			}
		} else {
			pumps, err := s.pumpRepo.ListByCheckpointIDs(ctx, tx, checkpointIDs)
			if err != nil {
				return err
			}
			affected = len(pumps)
		}

		return s.repo.MarkTriggered(ctx, tx, task.ID, s.clock.Now(), weatherJSON(weather))
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

func weatherJSON(weather rule.WeatherData) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(weather))
	for metric, value := range weather {
		out[string(metric)] = value
	}
	return out
}

func parseID(value string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalid
	}
	return id, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
