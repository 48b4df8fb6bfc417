package models

import (
	"testing"
	"time"

	"k8s.io/utils/ptr"
)

func TestSeasonFor(t *testing.T) {
	tests := []struct {
		name  string
		month time.Month
		lat   float64
		want  Season
	}{
		{"north spring", time.April, 51.5, Spring},
		{"north summer", time.July, 51.5, Summer},
		{"north autumn", time.October, 51.5, Autumn},
		{"north winter", time.January, 51.5, Winter},
		{"north december", time.December, 0, Winter},
		{"south spring", time.October, -33.9, Spring},
		{"south summer", time.January, -33.9, Summer},
		{"south autumn", time.April, -33.9, Autumn},
		{"south winter", time.July, -33.9, Winter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date := time.Date(2024, tt.month, 15, 0, 0, 0, 0, time.UTC)
			if got := SeasonFor(date, tt.lat); got != tt.want {
				t.Errorf("SeasonFor(%v, %v) = %v, want %v", tt.month, tt.lat, got, tt.want)
			}
		})
	}
}

func TestParseCondition_RoundTrip(t *testing.T) {
	for _, c := range AllConditions {
		parsed, err := ParseCondition(c.String())
		if err != nil {
			t.Fatalf("ParseCondition(%q) error = %v", c.String(), err)
		}
		if parsed != c {
			t.Errorf("ParseCondition(%q) = %v, want %v", c.String(), parsed, c)
		}
	}

	if _, err := ParseCondition("drizzle"); err == nil {
		t.Error("ParseCondition(drizzle) should fail")
	}
}

func TestConditionSet(t *testing.T) {
	var s ConditionSet
	if !s.Empty() {
		t.Error("zero ConditionSet should be empty")
	}

	s = s.Add(Thunderstorm).Add(MediumRain)
	if !s.Has(Thunderstorm) || !s.Has(MediumRain) {
		t.Errorf("set %v missing added conditions", s)
	}
	if s.Has(Windy) {
		t.Errorf("set %v should not contain windy", s)
	}
	if got := s.String(); got != "{thunderstorm,medium_rain}" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseSoundScope(t *testing.T) {
	tests := []struct {
		input   string
		want    SoundScope
		wantErr bool
	}{
		{"", ScopeEverywhere, false},
		{"Everywhere", ScopeEverywhere, false},
		{"cab", ScopeCab, false},
		{"PASS", ScopePass, false},
		{"roof", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSoundScope(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSoundScope(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSoundScope(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHourlySeries_Value(t *testing.T) {
	s := HourlySeries{
		Values: map[string][]*float64{
			ParamTemperature: {ptr.To(4.5), nil, ptr.To(-2.0)},
		},
	}

	if v := s.Value(ParamTemperature, 0); v == nil || *v != 4.5 {
		t.Errorf("Value(0) = %v, want 4.5", v)
	}
	if v := s.Value(ParamTemperature, 1); v != nil {
		t.Errorf("Value(1) = %v, want nil for null entry", *v)
	}
	if v := s.Value(ParamTemperature, 3); v != nil {
		t.Error("Value out of range should be nil")
	}
	if v := s.Value(ParamCloudCover, 0); v != nil {
		t.Error("Value for missing key should be nil")
	}
	if n, ok := s.Len(ParamTemperature); !ok || n != 3 {
		t.Errorf("Len() = %d, %v; want 3, true", n, ok)
	}
}

func TestDescribeWMO(t *testing.T) {
	if got := DescribeWMO(95); got != "Thunderstorm" {
		t.Errorf("DescribeWMO(95) = %q", got)
	}
	if got := DescribeWMO(42); got != "Unknown" {
		t.Errorf("DescribeWMO(42) = %q", got)
	}
}
