// Package location supplies the agent's GPS position. The values are sent
// with day start/end notifications for display only.
package location

import "context"

type Status string

const (
	StatusEnabled          Status = "enabled"
	StatusDisabled         Status = "disabled"
	StatusPermissionDenied Status = "permission_denied"
)

type Location struct {
	Latitude  float64
	Longitude float64
	Status    Status
}

// Default is reported when no fix is available.
var Default = Location{Status: StatusDisabled}

// Enabled reports whether the fix came from an active GPS.
func (l Location) Enabled() bool {
	return l.Status == StatusEnabled
}

type Provider interface {
	Current(ctx context.Context) Location
}

// StaticProvider reports a fixed position, as configured for a terminal
// session. A disabled provider reports Default.
type StaticProvider struct {
	Latitude  float64
	Longitude float64
	Enabled   bool
}

func NewStaticProvider(lat, lon float64, enabled bool) *StaticProvider {
	return &StaticProvider{Latitude: lat, Longitude: lon, Enabled: enabled}
}

func (p *StaticProvider) Current(ctx context.Context) Location {
	if p == nil || !p.Enabled {
		return Default
	}
	if ctx.Err() != nil {
		return Default
	}
	return Location{Latitude: p.Latitude, Longitude: p.Longitude, Status: StatusEnabled}
}

// DeniedProvider models a host where location access was refused.
type DeniedProvider struct{}

func (DeniedProvider) Current(context.Context) Location {
	return Location{Status: StatusPermissionDenied}
}
