package navigator

import (
	"fmt"
	"time"

	"github.com/nerrad567/parkpilot-core/internal/geo"
	"github.com/nerrad567/parkpilot-core/internal/infrastructure/config"
	"github.com/nerrad567/parkpilot-core/internal/motion"
	"github.com/nerrad567/parkpilot-core/internal/occupancy"
)

// Options holds the tuning a Navigator runs with.
type Options struct {
	SiteID     string
	Start      geo.Position
	Facilities *geo.Catalogue

	// TargetID is the auto-drive destination. Empty means the first facility.
	TargetID string

	FrameInterval     time.Duration
	AutoDriveInterval time.Duration
	PollInterval      time.Duration
	StepDegrees       float64
	Controller        motion.AutoDrive

	ContainerWidth float64
	ReferenceWidth float64
	OccupiedCodes  string
}

// OptionsFromConfig builds Options from a loaded config.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	facilities := make([]geo.Facility, 0, len(cfg.Facilities))
	for _, f := range cfg.Facilities {
		facilities = append(facilities, geo.Facility{
			ID:   f.ID,
			Name: f.Name,
			Position: geo.Position{
				Lat: f.Location.Latitude,
				Lng: f.Location.Longitude,
			},
		})
	}

	catalogue, err := geo.NewCatalogue(facilities)
	if err != nil {
		return Options{}, fmt.Errorf("building facility catalogue: %w", err)
	}

	return Options{
		SiteID: cfg.Site.ID,
		Start: geo.Position{
			Lat: cfg.Vehicle.Start.Latitude,
			Lng: cfg.Vehicle.Start.Longitude,
		},
		Facilities:        catalogue,
		TargetID:          cfg.TargetFacilityID(),
		FrameInterval:     cfg.Navigation.FrameInterval,
		AutoDriveInterval: cfg.Navigation.AutoDriveInterval,
		PollInterval:      cfg.Occupancy.PollInterval,
		StepDegrees:       cfg.Navigation.StepDegrees,
		Controller: motion.AutoDrive{
			Gain:                   cfg.Navigation.Gain,
			ArrivalThresholdMeters: cfg.Navigation.ArrivalThresholdMeters,
		},
		ContainerWidth: cfg.Occupancy.ContainerWidth,
		ReferenceWidth: cfg.Occupancy.ReferenceWidth,
		OccupiedCodes:  cfg.Occupancy.OccupiedCodes,
	}, nil
}

// withDefaults fills zero values.
func (o Options) withDefaults() Options {
	if o.FrameInterval <= 0 {
		o.FrameInterval = 16 * time.Millisecond
	}
	if o.AutoDriveInterval <= 0 {
		o.AutoDriveInterval = 16 * time.Millisecond
	}
	if o.PollInterval <= 0 {
		o.PollInterval = occupancy.DefaultPollInterval
	}
	if o.StepDegrees <= 0 {
		o.StepDegrees = motion.DefaultStepDegrees
	}
	if o.Controller.Gain <= 0 {
		o.Controller.Gain = motion.DefaultGain
	}
	if o.Controller.ArrivalThresholdMeters <= 0 {
		o.Controller.ArrivalThresholdMeters = motion.DefaultArrivalThresholdMeters
	}
	if o.ReferenceWidth <= 0 {
		o.ReferenceWidth = occupancy.DefaultReferenceWidth
	}
	if o.ContainerWidth <= 0 {
		o.ContainerWidth = o.ReferenceWidth
	}
	if o.OccupiedCodes == "" {
		o.OccupiedCodes = occupancy.DefaultOccupiedCodes
	}
	return o
}
