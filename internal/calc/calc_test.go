package calc

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestRound(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already rounded", 1.0, 1.0},
		{"half up", 0.25, 0.3},
		{"half away from zero (negative)", -0.25, -0.3},
		{"decimal representation", 1.05, 1.1},
		{"truncates down", 0.24, 0.2},
		{"NaN collapses", math.NaN(), 0},
		{"+Inf collapses", math.Inf(1), 0},
		{"-Inf collapses", math.Inf(-1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Round(tt.in))
		})
	}
}

func TestRound_Idempotent(t *testing.T) {
	for _, v := range []float64{0.15, 2.449, -7.75, 41.4142, 1e6 / 3} {
		once := Round(v)
		assert.Equal(t, once, Round(once), "v=%v", v)
	}
}

func TestFundRatios(t *testing.T) {
	// called=50, distributed=10, nav=40
	assert.Equal(t, 0.2, DPI(10, 50))
	assert.Equal(t, 1.0, TVPI(40, 10, 50))
}

func TestRatios_ZeroDenominator(t *testing.T) {
	assert.Equal(t, 0.0, DPI(10, 0))
	assert.Equal(t, 0.0, TVPI(40, 10, 0))
	assert.Equal(t, 0.0, MOIC(25, 0))
	assert.Equal(t, 0.0, MOIC(25, -5))
}

func TestMOIC(t *testing.T) {
	assert.Equal(t, 2.5, MOIC(50, 20))
	assert.Equal(t, 0.0, MOIC(0, 20))
	assert.Equal(t, 0.3, MOIC(1, 3))
}

func TestIRR(t *testing.T) {
	tests := []struct {
		name     string
		invested float64
		value    float64
		start    time.Time
		end      time.Time
		want     float64
		wantOK   bool
	}{
		{
			name: "doubling over two years", invested: 10, value: 20,
			start: day("2020-01-01"), end: day("2022-01-01"),
			want: 41.4, wantOK: true,
		},
		{
			name: "total loss", invested: 20, value: 0,
			start: day("2020-01-01"), end: day("2021-06-30"),
			want: -100, wantOK: true,
		},
		{
			name: "total loss on the same day", invested: 20, value: 0,
			start: day("2022-01-01"), end: day("2022-01-01"),
			want: -100, wantOK: true,
		},
		{
			name: "multiple rounding to zero is a total loss", invested: 1000, value: 40,
			start: day("2020-01-01"), end: day("2021-01-01"),
			want: -100, wantOK: true,
		},
		{
			name: "multiple rounding up to 0.1 is not", invested: 1000, value: 50,
			start: day("2020-01-01"), end: day("2021-01-01"),
			want: -95, wantOK: true,
		},
		{
			name: "zero span", invested: 20, value: 30,
			start: day("2022-01-01"), end: day("2022-01-01"),
		},
		{
			name: "negative span", invested: 20, value: 30,
			start: day("2022-01-02"), end: day("2022-01-01"),
		},
		{
			name: "nothing invested", invested: 0, value: 30,
			start: day("2020-01-01"), end: day("2022-01-01"),
		},
		{
			name: "missing start", invested: 10, value: 30,
			end: day("2022-01-01"),
		},
		{
			name: "flat", invested: 10, value: 10,
			start: day("2020-01-01"), end: day("2023-01-01"),
			want: 0, wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := IRR(tt.invested, tt.value, tt.start, tt.end)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIRR_Deterministic(t *testing.T) {
	a, okA := IRR(13, 29, day("2019-03-04"), day("2024-11-30"))
	b, okB := IRR(13, 29, day("2019-03-04"), day("2024-11-30"))
	require.True(t, okA)
	require.True(t, okB)
	assert.Equal(t, a, b)
}

func TestElapsedDays(t *testing.T) {
	d, ok := ElapsedDays(day("2024-01-01"), day("2024-03-01"))
	require.True(t, ok)
	assert.Equal(t, 60, d)

	d, ok = ElapsedDays(day("2024-01-01"), day("2024-01-01"))
	require.True(t, ok)
	assert.Equal(t, 0, d)

	_, ok = ElapsedDays(day("2024-01-02"), day("2024-01-01"))
	assert.False(t, ok)

	_, ok = ElapsedDays(time.Time{}, day("2024-01-01"))
	assert.False(t, ok)
}

func TestPosition(t *testing.T) {
	t.Run("written off", func(t *testing.T) {
		m := Position(PositionInput{Invested: 20, Value: 0, Start: day("2021-01-01"), End: day("2023-01-01")})
		assert.Equal(t, 0.0, m.MOIC)
		require.NotNil(t, m.IRR)
		assert.Equal(t, -100.0, *m.IRR)
	})

	t.Run("exited same day", func(t *testing.T) {
		m := Position(PositionInput{Invested: 20, Value: 35, Start: day("2022-01-01"), End: day("2022-01-01")})
		assert.Equal(t, 1.8, m.MOIC)
		assert.Nil(t, m.IRR)
	})
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Holding{
		{Invested: 10, Value: 25, Realized: true},
		{Invested: 20, Value: 0, Realized: true},
		{Invested: 30, Value: 45},
	})

	assert.Equal(t, 3, s.Positions)
	assert.Equal(t, 2, s.Realized)
	assert.Equal(t, 60.0, s.Invested)
	assert.Equal(t, 70.0, s.Value)
	assert.Equal(t, 25.0, s.RealizedValue)
	assert.Equal(t, 45.0, s.UnrealizedValue)
	assert.Equal(t, 1.2, s.MOIC)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Positions)
	assert.Equal(t, 0.0, s.MOIC)
}
