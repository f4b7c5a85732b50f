package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	checkpointdomain "github.com/smallbiznis/fieldwatch/internal/checkpoint/domain"
	checkpointrepo "github.com/smallbiznis/fieldwatch/internal/checkpoint/repository"
	"github.com/smallbiznis/fieldwatch/internal/clock"
	"github.com/smallbiznis/fieldwatch/internal/field/domain"
	"github.com/smallbiznis/fieldwatch/internal/field/repository"
	pumpdomain "github.com/smallbiznis/fieldwatch/internal/pump/domain"
	pumprepo "github.com/smallbiznis/fieldwatch/internal/pump/repository"
	sensordomain "github.com/smallbiznis/fieldwatch/internal/sensor/domain"
	sensorrepo "github.com/smallbiznis/fieldwatch/internal/sensor/repository"
	sensorservice "github.com/smallbiznis/fieldwatch/internal/sensor/service"
	triggerdomain "github.com/smallbiznis/fieldwatch/internal/triggertask/domain"
	triggerrepo "github.com/smallbiznis/fieldwatch/internal/triggertask/repository"
	"github.com/smallbiznis/fieldwatch/internal/triggertask/rule"
	"github.com/smallbiznis/fieldwatch/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conn := db.NewTest(t,
		&domain.Field{},
		&checkpointdomain.Checkpoint{},
		&sensordomain.Sensor{},
		&pumpdomain.Pump{},
		&triggerdomain.TriggerTask{},
	)
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	overview, err := repository.ProvideOverview(conn)
	if err != nil {
		t.Fatalf("overview reader: %v", err)
	}

	fake := clock.NewFakeClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	svc := New(Params{
		DB:             conn,
		Log:            zap.NewNop(),
		Clock:          fake,
		GenID:          node,
		Repo:           repository.Provide(),
		Overview:       overview,
		CheckpointRepo: checkpointrepo.Provide(),
		SensorRepo:     sensorrepo.Provide(),
		PumpRepo:       pumprepo.Provide(),
		TriggerRepo:    triggerrepo.Provide(),
		Catalog:        sensorservice.NewStaticCatalog(),
	})
	return &fixture{db: conn, node: node, clock: fake, svc: svc}
}

// addCheckpoint stores a checkpoint with a pump and the given readings.
func (f *fixture) addCheckpoint(t *testing.T, fieldID snowflake.ID, name string, readings map[sensordomain.SensorType]float64) checkpointdomain.Checkpoint {
	t.Helper()

	now := f.clock.Now()
	cp := checkpointdomain.Checkpoint{ID: f.node.Generate(), FieldID: fieldID, Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.db.Create(&cp).Error)
	pump := pumpdomain.Pump{ID: f.node.Generate(), CheckpointID: cp.ID, Name: pumpdomain.NameFor(name)}
	require.NoError(t, f.db.Select("*").Create(&pump).Error)
	for sensorType, value := range readings {
		spec, _ := sensorservice.NewStaticCatalog().Spec(sensorType)
		sensor := sensordomain.Sensor{ID: f.node.Generate(), CheckpointID: cp.ID, SensorType: sensorType, Value: value, Unit: spec.Unit, ReadAt: now}
		require.NoError(t, f.db.Create(&sensor).Error)
	}
	return cp
}

func count(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestCreateDefaultsCity(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	field, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "  North  ", UserID: userID.String()})
	require.NoError(t, err)
	assert.Equal(t, "North", field.Name)
	assert.Equal(t, domain.DefaultCity, field.City)
	assert.Equal(t, userID, field.UserID)
}

func TestCreateRejectsDuplicateNamePerUser(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()

	_, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", City: "Cork", UserID: userID.String()})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: userID.String()})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// another user may reuse the name
	_, err = f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: f.node.Generate().String()})
	assert.NoError(t, err)
}

func TestCreateValidatesInput(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: " ", UserID: f.node.Generate().String()})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidUser)
}

func TestUpdateRechecksUniqueness(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate().String()
	north, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: userID})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "South", UserID: userID})
	require.NoError(t, err)

	clash := "South"
	_, err = f.svc.Update(context.Background(), domain.UpdateFieldRequest{ID: north.ID.String(), UserID: userID, Name: &clash})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	same := "North"
	city := "Galway"
	f.clock.Advance(time.Minute)
	updated, err := f.svc.Update(context.Background(), domain.UpdateFieldRequest{ID: north.ID.String(), UserID: userID, Name: &same, City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Galway", updated.City)
	assert.True(t, updated.UpdatedAt.After(north.UpdatedAt))
}

func TestUpdateNotOwned(t *testing.T) {
	f := setup(t)
	field, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: f.node.Generate().String()})
	require.NoError(t, err)

	city := "Cork"
	_, err = f.svc.Update(context.Background(), domain.UpdateFieldRequest{ID: field.ID.String(), UserID: f.node.Generate().String(), City: &city})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListBuildsNestedOverview(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	field, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: userID.String()})
	require.NoError(t, err)
	_, err = f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "Hidden", UserID: f.node.Generate().String()})
	require.NoError(t, err)

	cp := f.addCheckpoint(t, field.ID, "A", map[sensordomain.SensorType]float64{
		sensordomain.SensorTypeSoilMoisture: 41.5,
	})

	fields, err := f.svc.List(context.Background(), userID.String())
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, field.ID, fields[0].ID)
	require.Len(t, fields[0].Checkpoints, 1)

	got := fields[0].Checkpoints[0]
	assert.Equal(t, cp.ID, got.ID)
	require.NotNil(t, got.Pump)
	assert.Equal(t, "Pump A", got.Pump.Name)
	assert.False(t, got.Pump.IsOn)
	assert.Nil(t, got.Pump.LastActivated)

	require.Len(t, got.Sensors, len(sensordomain.SensorTypes))
	assert.Equal(t, 41.5, got.Sensors["soil_moisture"].Value)

	// types without a reading are filled with zero values
	light := got.Sensors["light"]
	assert.Zero(t, light.Value)
	assert.Equal(t, "lux", light.Unit)
	assert.True(t, light.Timestamp.Equal(f.clock.Now()))
}

func TestListEmpty(t *testing.T) {
	f := setup(t)

	fields, err := f.svc.List(context.Background(), f.node.Generate().String())
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestDeleteCascadesExactly(t *testing.T) {
	f := setup(t)
	userID := f.node.Generate()
	doomed, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "North", UserID: userID.String()})
	require.NoError(t, err)
	kept, err := f.svc.Create(context.Background(), domain.CreateFieldRequest{Name: "South", UserID: userID.String()})
	require.NoError(t, err)

	all := map[sensordomain.SensorType]float64{}
	for _, st := range sensordomain.SensorTypes {
		all[st] = 1
	}
	f.addCheckpoint(t, doomed.ID, "A", all)
	f.addCheckpoint(t, doomed.ID, "B", all)
	keptCheckpoint := f.addCheckpoint(t, kept.ID, "C", all)

	task := triggerdomain.TriggerTask{
		ID:            f.node.Generate(),
		FieldID:       doomed.ID,
		Name:          "heat",
		WeatherMetric: rule.MetricTemperature,
		Condition:     rule.ConditionGreaterThan,
		Threshold:     30,
		Action:        rule.ActionPowerOnAllPumps,
		IsActive:      true,
		CreatedAt:     f.clock.Now(),
	}
	require.NoError(t, f.db.Create(&task).Error)

	err = f.svc.Delete(context.Background(), doomed.ID.String(), f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), doomed.ID.String(), userID.String()))

	assert.EqualValues(t, 1, count(t, f.db, &domain.Field{}))
	assert.EqualValues(t, 1, count(t, f.db, &checkpointdomain.Checkpoint{}))
	assert.EqualValues(t, len(sensordomain.SensorTypes), count(t, f.db, &sensordomain.Sensor{}))
	assert.EqualValues(t, 1, count(t, f.db, &pumpdomain.Pump{}))
	assert.Zero(t, count(t, f.db, &triggerdomain.TriggerTask{}))

	var remaining checkpointdomain.Checkpoint
	require.NoError(t, f.db.Take(&remaining).Error)
	assert.Equal(t, keptCheckpoint.ID, remaining.ID)
}
