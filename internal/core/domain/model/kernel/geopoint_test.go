package kernel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

func mustNewGeoPoint(t *testing.T, lat, lng float64) kernel.GeoPoint {
	t.Helper()
	p, err := kernel.NewGeoPoint(lat, lng)
	require.NoError(t, err)
	return p
}

func TestNewGeoPoint(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
		errType error
	}{
		{
			name:    "valid point",
			lat:     40.7128,
			lng:     -74.0060,
			wantErr: false,
		},
		{
			name:    "valid point at min bounds",
			lat:     kernel.LatitudeMin,
			lng:     kernel.LongitudeMin,
			wantErr: false,
		},
		{
			name:    "valid point at max bounds",
			lat:     kernel.LatitudeMax,
			lng:     kernel.LongitudeMax,
			wantErr: false,
		},
		{
			name:    "latitude too small",
			lat:     -90.5,
			lng:     0,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("latitude", -90.5, kernel.LatitudeMin, kernel.LatitudeMax),
		},
		{
			name:    "latitude too large",
			lat:     90.5,
			lng:     0,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("latitude", 90.5, kernel.LatitudeMin, kernel.LatitudeMax),
		},
		{
			name:    "longitude too small",
			lat:     0,
			lng:     -180.5,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("longitude", -180.5, kernel.LongitudeMin, kernel.LongitudeMax),
		},
		{
			name:    "longitude too large",
			lat:     0,
			lng:     180.5,
			wantErr: true,
			errType: errs.NewValueIsOutOfRangeError("longitude", 180.5, kernel.LongitudeMin, kernel.LongitudeMax),
		},
		{
			name:    "both coordinates invalid",
			lat:     -91,
			lng:     181,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := kernel.NewGeoPoint(tt.lat, tt.lng)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Zero(t, p)
				if tt.errType != nil {
					assert.ErrorAs(t, err, &tt.errType)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.lat, p.Lat())
				assert.Equal(t, tt.lng, p.Lng())
				assert.NoError(t, p.Validate())
			}
		})
	}
}

func TestGeoPoint_Validate(t *testing.T) {
	t.Run("valid point", func(t *testing.T) {
		p := mustNewGeoPoint(t, 10, 20)
		assert.NoError(t, p.Validate())
	})

	t.Run("zero value point", func(t *testing.T) {
		var p kernel.GeoPoint
		err := p.Validate()
		assert.Error(t, err)
		assert.Equal(t, kernel.ErrGeoPointIsNotConstructed, err)
	})
}

func TestGeoPoint_String(t *testing.T) {
	p := mustNewGeoPoint(t, 40.7128, -74.006)
	assert.Equal(t, "GeoPoint(40.712800,-74.006000)", p.String())
}

func TestGeoPoint_IsEqual(t *testing.T) {
	tests := []struct {
		name    string
		p1      kernel.GeoPoint
		p2      kernel.GeoPoint
		want    bool
		wantErr bool
	}{
		{
			name: "equal points",
			p1:   mustNewGeoPoint(t, 10, 20),
			p2:   mustNewGeoPoint(t, 10, 20),
			want: true,
		},
		{
			name: "different latitude",
			p1:   mustNewGeoPoint(t, 10, 20),
			p2:   mustNewGeoPoint(t, 11, 20),
			want: false,
		},
		{
			name: "different longitude",
			p1:   mustNewGeoPoint(t, 10, 20),
			p2:   mustNewGeoPoint(t, 10, 21),
			want: false,
		},
		{
			name:    "first point invalid",
			p1:      kernel.GeoPoint{},
			p2:      mustNewGeoPoint(t, 10, 20),
			wantErr: true,
		},
		{
			name:    "second point invalid",
			p1:      mustNewGeoPoint(t, 10, 20),
			p2:      kernel.GeoPoint{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p1.IsEqual(tt.p2)

			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, got)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	t.Run("same point is zero", func(t *testing.T) {
		p := mustNewGeoPoint(t, 40.7128, -74.006)
		d, err := p.DistanceKm(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, d, 0.001)
	})

	t.Run("new york to london", func(t *testing.T) {
		ny := mustNewGeoPoint(t, 40.7128, -74.0060)
		london := mustNewGeoPoint(t, 51.5074, -0.1278)

		d, err := ny.DistanceKm(london)
		require.NoError(t, err)
		assert.InDelta(t, 5570, d, 10)
	})

	t.Run("distance is symmetric", func(t *testing.T) {
		a := mustNewGeoPoint(t, 48.8566, 2.3522)
		b := mustNewGeoPoint(t, 52.5200, 13.4050)

		dAB, err := a.DistanceKm(b)
		require.NoError(t, err)
		dBA, err := b.DistanceKm(a)
		require.NoError(t, err)

		assert.InDelta(t, dAB, dBA, 0.0001)
	})

	t.Run("invalid point", func(t *testing.T) {
		p := mustNewGeoPoint(t, 10, 20)
		_, err := p.DistanceKm(kernel.GeoPoint{})
		assert.Error(t, err)
	})
}
