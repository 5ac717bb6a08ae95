package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/flight-reservation/internal/model"
)

const topN = 3

// ReportService builds the manager dashboard.
type ReportService struct {
	reports ReportStore
	now     Clock
}

func NewReportService(reports ReportStore) *ReportService {
	return &ReportService{reports: reports, now: utcNow}
}

// Dashboard runs the aggregations concurrently.  Revenue and cancellation
// rate honour [from, to]; the top lists do not, and the busiest months cover
// the trailing year.
func (s *ReportService) Dashboard(ctx context.Context, from, to *time.Time) (model.Dashboard, error) {
	if from != nil && to != nil && to.Before(*from) {
		return model.Dashboard{}, invalid("End of the period is before its start.")
	}
	now := s.now()
	d := model.Dashboard{From: from, To: to, GeneratedAt: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TopEmployees, err = s.reports.TopCrewByHours(ctx, now, topN)
		return errors.Wrap(err, "top crew")
	})
	g.Go(func() (err error) {
		d.TopCustomers, err = s.reports.TopCustomers(ctx, topN)
		return errors.Wrap(err, "top customers")
	})
	g.Go(func() (err error) {
		d.TopRoutes, err = s.reports.TopRoutes(ctx, topN)
		return errors.Wrap(err, "top routes")
	})
	g.Go(func() (err error) {
		d.TopMonths, err = s.reports.TopMonths(ctx, now.AddDate(-1, 0, 0), topN)
		return errors.Wrap(err, "top months")
	})
	g.Go(func() (err error) {
		d.Revenue, d.CancelRate, err = s.reports.Totals(ctx, from, to)
		return errors.Wrap(err, "totals")
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return d, nil
}
