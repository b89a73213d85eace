package app

import (
	"context"
	"time"
)

// StartCatalogMonitor fetches the route catalog every interval until ctx is done,
// keeping busmap_routes_in_catalog current and surfacing upstream outages before
// a rider hits them. Failures are already reported by the client; they are only
// logged here.
func (app *Application) StartCatalogMonitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		app.checkCatalog(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				app.checkCatalog(ctx)
			}
		}
	}()
}

func (app *Application) checkCatalog(ctx context.Context) {
	catalog, _, _ := app.sources()

	routes, err := catalog.FetchBusRoutes(ctx)
	if err != nil {
		if ctx.Err() == nil {
			app.Logger.Error("Route catalog check failed", "error", err)
		}
		return
	}
	app.Logger.Info("Route catalog check succeeded", "routes", len(routes))
}
