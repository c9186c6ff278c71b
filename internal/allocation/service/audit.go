package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	id "hostelcore/pkg/domain"
	dErrors "hostelcore/pkg/domain-errors"

	facilitymodels "hostelcore/internal/facility/models"
	"hostelcore/internal/platform/metrics"
)

// Catalog is the read-only slice of the facility store the auditor walks.
type Catalog interface {
	ListHostels(ctx context.Context) ([]*facilitymodels.Hostel, error)
	ListRoomsByHostel(ctx context.Context, hostelID id.HostelID) ([]*facilitymodels.Room, error)
	ListBedsByRoom(ctx context.Context, roomID id.RoomID) ([]*facilitymodels.Bed, error)
}

// Auditor recomputes occupancy from allocation rows and reports rooms and
// beds whose cached state disagrees. Report-only: repairs are an operator
// decision, not an automatic write.
type Auditor struct {
	store   Store
	catalog Catalog
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewAuditor(store Store, catalog Catalog, m *metrics.Metrics, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{store: store, catalog: catalog, metrics: m, logger: logger}
}

// RoomDrift describes one room whose counter disagrees with allocation rows.
type RoomDrift struct {
	RoomID        id.RoomID   `json:"room_id"`
	HostelID      id.HostelID `json:"hostel_id"`
	CachedCount   int         `json:"cached_count"`
	DerivedCount  int         `json:"derived_count"`
	BedFlagsWrong int         `json:"bed_flags_wrong"`
}

// Report is the outcome of one reconciliation sweep.
type Report struct {
	RoomsChecked int         `json:"rooms_checked"`
	Drifted      []RoomDrift `json:"drifted,omitempty"`
}

// Reconcile sweeps every hostel concurrently, one goroutine per hostel, and
// compares each room's cached occupancy and bed flags against the active
// allocation rows. A consistent system returns an empty Drifted slice.
func (a *Auditor) Reconcile(ctx context.Context) (*Report, error) {
	hostels, err := a.catalog.ListHostels(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list hostels")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	results := make([][]RoomDrift, len(hostels))
	checked := make([]int, len(hostels))

	for i, hostel := range hostels {
		g.Go(func() error {
			drifts, n, err := a.sweepHostel(ctx, hostel.ID)
			if err != nil {
				return err
			}
			results[i] = drifts
			checked[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{}
	for i := range hostels {
		report.RoomsChecked += checked[i]
		report.Drifted = append(report.Drifted, results[i]...)
	}
	if a.metrics != nil {
		a.metrics.SetOccupancyDrift(len(report.Drifted))
	}
	for _, d := range report.Drifted {
		a.logger.WarnContext(ctx, "room occupancy drift",
			slog.String("room_id", d.RoomID.String()),
			slog.Int("cached", d.CachedCount),
			slog.Int("derived", d.DerivedCount),
			slog.Int("bed_flags_wrong", d.BedFlagsWrong))
	}
	return report, nil
}

func (a *Auditor) sweepHostel(ctx context.Context, hostelID id.HostelID) ([]RoomDrift, int, error) {
	rooms, err := a.catalog.ListRoomsByHostel(ctx, hostelID)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list rooms")
	}

	var drifts []RoomDrift
	for _, room := range rooms {
		beds, err := a.catalog.ListBedsByRoom(ctx, room.ID)
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "list beds")
		}
		bedIDs := make([]id.BedID, len(beds))
		occupiedFlags := 0
		for i, bed := range beds {
			bedIDs[i] = bed.ID
			if bed.IsOccupied {
				occupiedFlags++
			}
		}
		derived, err := a.store.CountActiveByBeds(ctx, bedIDs)
		if err != nil {
			return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "count allocations")
		}
		if derived != room.CurrentOccupancy || derived != occupiedFlags {
			wrong := occupiedFlags - derived
			if wrong < 0 {
				wrong = -wrong
			}
			drifts = append(drifts, RoomDrift{
				RoomID:        room.ID,
				HostelID:      hostelID,
				CachedCount:   room.CurrentOccupancy,
				DerivedCount:  derived,
				BedFlagsWrong: wrong,
			})
		}
	}
	return drifts, len(rooms), nil
}
