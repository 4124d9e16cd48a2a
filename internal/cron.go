package internal

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const reloadTimeout = 5 * time.Minute

// StartReloadCron periodically reloads the template catalog. A failed
// reload keeps serving the previous table.
func StartReloadCron(catalog *Catalog, schedule string) (*cron.Cron, error) {
	c := cron.New()

	log.Printf("Starting CRON job to reload templates (schedule=%s)", schedule)
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()

		if err := catalog.Reload(ctx); err != nil {
			log.Printf("Failed to reload templates: %v", err)
		}
	})

	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
