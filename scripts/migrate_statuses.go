// One-shot migration: canonical complaint statuses and priority_rank backfill.
//
//	go run ./scripts/migrate_statuses.go
package main

import (
	"context"
	"time"

	"sayit/internal/config"
	"sayit/internal/database"

	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	cfg := config.Load()

	db, err := database.NewMongoDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to MongoDB")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := database.NewComplaintStore(db).MigrateLegacy(ctx)
	if err != nil {
		log.WithError(err).Fatal("migration failed")
	}

	log.WithFields(logrus.Fields{
		"statuses_rewritten": res.Statuses,
		"ranks_backfilled":   res.Ranks,
	}).Info("migration complete")
}
