package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const RoleFarmer = "role:farmer"

const (
	ObjectField       = "field"
	ObjectCheckpoint  = "checkpoint"
	ObjectPump        = "pump"
	ObjectTriggerTask = "trigger_task"
	ObjectWeather     = "weather"
)

const (
	ActionView     = "view"
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionControl  = "control"
	ActionEvaluate = "evaluate"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

// UserSubject formats the casbin subject for a user id.
func UserSubject(id snowflake.ID) string {
	return "user:" + id.String()
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if err := validateActor(actor); err != nil {
		return err
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	if err := s.EnsureRole(ctx, actor); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(actor, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Warn("authorization denied",
			zap.String("subject", actor),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) EnsureRole(ctx context.Context, actor string) error {
	actor = strings.TrimSpace(actor)
	if err := validateActor(actor); err != nil {
		return err
	}
	has, err := s.enforcer.HasGroupingPolicy(actor, RoleFarmer)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(actor, RoleFarmer)
	return err
}

func validateActor(actor string) error {
	if !strings.HasPrefix(actor, "user:") {
		return ErrInvalidActor
	}
	id, err := snowflake.ParseString(strings.TrimPrefix(actor, "user:"))
	if err != nil || id == 0 {
		return ErrInvalidActor
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{RoleFarmer, ObjectField, ActionView},
		{RoleFarmer, ObjectField, ActionCreate},
		{RoleFarmer, ObjectField, ActionUpdate},
		{RoleFarmer, ObjectField, ActionDelete},

		{RoleFarmer, ObjectCheckpoint, ActionView},
		{RoleFarmer, ObjectCheckpoint, ActionCreate},
		{RoleFarmer, ObjectCheckpoint, ActionUpdate},
		{RoleFarmer, ObjectCheckpoint, ActionDelete},

		{RoleFarmer, ObjectTriggerTask, ActionView},
		{RoleFarmer, ObjectTriggerTask, ActionCreate},
		{RoleFarmer, ObjectTriggerTask, ActionUpdate},
		{RoleFarmer, ObjectTriggerTask, ActionDelete},
		{RoleFarmer, ObjectTriggerTask, ActionEvaluate},

		{RoleFarmer, ObjectPump, ActionView},
		{RoleFarmer, ObjectPump, ActionControl},

		{RoleFarmer, ObjectWeather, ActionView},
	}

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
