package timeline

import (
	"testing"

	"k8s.io/utils/ptr"

	"github.com/ngmaloney/weatherlink/internal/models"
)

func TestMap_FogCodeExample(t *testing.T) {
	got := Map(ptr.To(48), ptr.To(50.0), ptr.To(20.0), ptr.To(5000.0), ptr.To(5.0))
	want := models.WeatherParams{Overcast: 0.8, FogM: 600, Precipitation: 0.015, Liquidity: 1.0}
	if got != want {
		t.Errorf("Map() = %+v, want %+v", got, want)
	}
}

func TestMap_Defaults(t *testing.T) {
	got := Map(nil, nil, nil, nil, nil)
	want := models.WeatherParams{Overcast: 0, FogM: 100000, Precipitation: 0, Liquidity: 1}
	if got != want {
		t.Errorf("Map() with no inputs = %+v, want %+v", got, want)
	}
}

func TestMap_Liquidity(t *testing.T) {
	tests := []struct {
		name string
		code int
		temp *float64
		want float64
	}{
		{"warm rain", 61, ptr.To(10.0), 1},
		{"exactly two degrees", 61, ptr.To(2.0), 1},
		{"mid ramp", 61, ptr.To(0.5), 0.5},
		{"freezing point", 61, ptr.To(0.0), 0.33},
		{"exactly minus one", 61, ptr.To(-1.0), 0},
		{"cold", 61, ptr.To(-10.0), 0},
		{"snow code overrides warm air", 73, ptr.To(8.0), 0},
		{"no temperature", 61, nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Map(ptr.To(tt.code), nil, nil, nil, tt.temp)
			if got.Liquidity != tt.want {
				t.Errorf("Liquidity = %v, want %v", got.Liquidity, tt.want)
			}
		})
	}
}

func TestMap_Bounded(t *testing.T) {
	values := []float64{-50, -1, 0, 0.04, 1, 9.99, 50, 100, 150, 5000, 1e6}
	codes := []int{0, 3, 45, 48, 61, 71, 95}

	for _, code := range codes {
		for _, v := range values {
			p := Map(ptr.To(code), ptr.To(v), ptr.To(v), ptr.To(v), ptr.To(v))
			if p.Overcast < 0 || p.Overcast > 1 {
				t.Errorf("code %d value %v: overcast %v out of range", code, v, p.Overcast)
			}
			if p.FogM < 10 || p.FogM > 100000 {
				t.Errorf("code %d value %v: fog %v out of range", code, v, p.FogM)
			}
			if p.Precipitation < 0 || p.Precipitation > 0.015 {
				t.Errorf("code %d value %v: precipitation %v out of range", code, v, p.Precipitation)
			}
			if p.Liquidity < 0 || p.Liquidity > 1 {
				t.Errorf("code %d value %v: liquidity %v out of range", code, v, p.Liquidity)
			}
		}
	}
}

func TestMap_Rounding(t *testing.T) {
	p := Map(nil, ptr.To(33.333), ptr.To(1.234567), ptr.To(8.0), nil)
	if p.Overcast != 0.33 {
		t.Errorf("Overcast = %v, want 0.33", p.Overcast)
	}
	if p.Precipitation != 0.00123 {
		t.Errorf("Precipitation = %v, want 0.00123", p.Precipitation)
	}
	if p.FogM != 10 {
		t.Errorf("FogM = %v, want visibility floor 10", p.FogM)
	}
}
