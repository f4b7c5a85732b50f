package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bwmarrin/snowflake"
	"github.com/jmoiron/sqlx"
	"github.com/smallbiznis/fieldwatch/internal/field/domain"
	"gorm.io/gorm"
)

type overviewReader struct {
	db *sqlx.DB
}

// ProvideOverview shares the gorm connection pool with sqlx.
func ProvideOverview(db *gorm.DB) (domain.OverviewReader, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	return NewOverviewReader(sqlx.NewDb(sqlDB, driverName(db.Dialector.Name()))), nil
}

func NewOverviewReader(db *sqlx.DB) domain.OverviewReader {
	return &overviewReader{db: db}
}

func driverName(dialect string) string {
	switch dialect {
	case "postgres":
		return "postgres"
	case "mysql":
		return "mysql"
	default:
		return "sqlite3"
	}
}

type fieldRow struct {
	ID        snowflake.ID `db:"id"`
	Name      string       `db:"name"`
	City      string       `db:"city"`
	CreatedAt scanTime     `db:"created_at"`
}

type checkpointRow struct {
	ID      snowflake.ID `db:"id"`
	FieldID snowflake.ID `db:"field_id"`
	Name    string       `db:"name"`
}

type sensorRow struct {
	CheckpointID snowflake.ID `db:"checkpoint_id"`
	SensorType   string       `db:"sensor_type"`
	Value        float64      `db:"value"`
	Unit         string       `db:"unit"`
	ReadAt       scanTime     `db:"read_at"`
}

type pumpRow struct {
	ID            snowflake.ID `db:"id"`
	CheckpointID  snowflake.ID `db:"checkpoint_id"`
	Name          string       `db:"name"`
	IsOn          bool         `db:"is_on"`
	LastActivated scanTime     `db:"last_activated"`
}

func (r *overviewReader) ListOverview(ctx context.Context, userID snowflake.ID) ([]domain.Overview, error) {
	var fields []fieldRow
	err := r.selectInto(ctx, &fields, sq.
		Select("id", "name", "city", "created_at").
		From("fields").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at", "id"))
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	if len(fields) == 0 {
		return []domain.Overview{}, nil
	}

	fieldIDs := make([]snowflake.ID, 0, len(fields))
	for _, f := range fields {
		fieldIDs = append(fieldIDs, f.ID)
	}

	var checkpoints []checkpointRow
	err = r.selectInto(ctx, &checkpoints, sq.
		Select("id", "field_id", "name").
		From("checkpoints").
		Where(sq.Eq{"field_id": fieldIDs}).
		OrderBy("id"))
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	sensorsByCheckpoint := map[snowflake.ID]map[string]domain.SensorReading{}
	pumpsByCheckpoint := map[snowflake.ID]*domain.PumpOverview{}
	if len(checkpoints) > 0 {
		checkpointIDs := make([]snowflake.ID, 0, len(checkpoints))
		for _, cp := range checkpoints {
			checkpointIDs = append(checkpointIDs, cp.ID)
		}

		var sensors []sensorRow
		err = r.selectInto(ctx, &sensors, sq.
			Select("checkpoint_id", "sensor_type", "value", "unit", "read_at").
			From("sensors").
			Where(sq.Eq{"checkpoint_id": checkpointIDs}))
		if err != nil {
			return nil, fmt.Errorf("list sensors: %w", err)
		}
		for _, s := range sensors {
			readings, ok := sensorsByCheckpoint[s.CheckpointID]
			if !ok {
				readings = map[string]domain.SensorReading{}
				sensorsByCheckpoint[s.CheckpointID] = readings
			}
			readings[s.SensorType] = domain.SensorReading{
				Value:     s.Value,
				Unit:      s.Unit,
				Timestamp: s.ReadAt.Time,
			}
		}

		var pumps []pumpRow
		err = r.selectInto(ctx, &pumps, sq.
			Select("id", "checkpoint_id", "name", "is_on", "last_activated").
			From("pumps").
			Where(sq.Eq{"checkpoint_id": checkpointIDs}))
		if err != nil {
			return nil, fmt.Errorf("list pumps: %w", err)
		}
		for _, p := range pumps {
			pump := &domain.PumpOverview{ID: p.ID, Name: p.Name, IsOn: p.IsOn}
			if p.LastActivated.Valid {
				at := p.LastActivated.Time
				pump.LastActivated = &at
			}
			pumpsByCheckpoint[p.CheckpointID] = pump
		}
	}

	checkpointsByField := map[snowflake.ID][]domain.CheckpointOverview{}
	for _, cp := range checkpoints {
		sensors := sensorsByCheckpoint[cp.ID]
		if sensors == nil {
			sensors = map[string]domain.SensorReading{}
		}
		checkpointsByField[cp.FieldID] = append(checkpointsByField[cp.FieldID], domain.CheckpointOverview{
			ID:      cp.ID,
			Name:    cp.Name,
			Sensors: sensors,
			Pump:    pumpsByCheckpoint[cp.ID],
		})
	}

	out := make([]domain.Overview, 0, len(fields))
	for _, f := range fields {
		cps := checkpointsByField[f.ID]
		if cps == nil {
			cps = []domain.CheckpointOverview{}
		}
		out = append(out, domain.Overview{
			ID:          f.ID,
			Name:        f.Name,
			City:        f.City,
			CreatedAt:   f.CreatedAt.Time,
			Checkpoints: cps,
		})
	}
	return out, nil
}

func (r *overviewReader) selectInto(ctx context.Context, dest any, builder sq.SelectBuilder) error {
	query, args, err := builder.ToSql()
	if err != nil {
		return err
	}
	return r.db.SelectContext(ctx, dest, r.db.Rebind(query), args...)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// scanTime accepts native time values as well as the text encodings some drivers return.
type scanTime struct {
	Time  time.Time
	Valid bool
}

func (t *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *scanTime) parse(value string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", value)
}

func (t scanTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time, nil
}
