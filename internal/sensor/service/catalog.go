package service

import (
	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/smallbiznis/fieldwatch/internal/sensor/domain"
)

type catalog struct {
	holder *config.SensorsConfigHolder
}

// NewCatalog reads ranges from the hot-reloaded sensors config on every call.
// Types outside the fixed enumeration are ignored and missing types keep their defaults.
func NewCatalog(holder *config.SensorsConfigHolder) domain.Catalog {
	return &catalog{holder: holder}
}

// NewStaticCatalog serves DefaultSpecs only.
func NewStaticCatalog() domain.Catalog {
	return &catalog{}
}

func (c *catalog) Specs() []domain.Spec {
	overrides := map[domain.SensorType]domain.Spec{}
	if c.holder != nil {
		for _, r := range c.holder.Get().Ranges {
			t := domain.SensorType(r.Type)
			if !t.Valid() {
				continue
			}
			overrides[t] = domain.Spec{Type: t, Min: r.Min, Max: r.Max, Unit: r.Unit}
		}
	}

	specs := make([]domain.Spec, 0, len(domain.DefaultSpecs))
	for _, def := range domain.DefaultSpecs {
		if override, ok := overrides[def.Type]; ok {
			specs = append(specs, override)
			continue
		}
		specs = append(specs, def)
	}
	return specs
}

func (c *catalog) Spec(t domain.SensorType) (domain.Spec, bool) {
	for _, spec := range c.Specs() {
		if spec.Type == t {
			return spec, true
		}
	}
	return domain.Spec{}, false
}
