package utils

import (
	"log"
	"time"

	"lms/completion"
	"lms/config"
	"lms/database"
	courseModels "lms/models/course"

	"github.com/robfig/cron/v3"
)

// logRecalc logs recalculation scheduler events with timestamp
func logRecalc(message string) {
	log.Printf("[RECALC-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// recalcOpenEnrollments re-derives completion state for every enrollment that has
// not completed yet. Completion self-corrects on the next triggering event anyway;
// this job just shortens the window when an event was lost.
func recalcOpenEnrollments(engine *completion.Engine) {
	db := database.Database.Db

	var enrollments []courseModels.Enrollment
	if err := db.Where("status <> ? AND is_deleted = ?", "COMPLETED", false).Find(&enrollments).Error; err != nil {
		logRecalc("Error fetching open enrollments: " + err.Error())
		return
	}

	recalced := 0
	for _, e := range enrollments {
		if err := engine.RecalculateCourseCompletions(e.UserID, e.CourseID, e.ClientID); err != nil {
			logRecalc("Recalculation error for user " + itoa(e.UserID) + " course " + itoa(e.CourseID) + ": " + err.Error())
			continue
		}
		recalced++
	}
	logRecalc("Recalculated completions for " + itoa(uint(recalced)) + " enrollments")
}

// StartRecalcScheduler runs the bulk completion recalculation on the configured
// cron spec.
func StartRecalcScheduler(engine *completion.Engine) *cron.Cron {
	c := cron.New()

	spec := config.AppConfig.RecalcCronSpec
	if _, err := c.AddFunc(spec, func() { recalcOpenEnrollments(engine) }); err != nil {
		log.Fatalf("Failed to schedule completion recalculation: %v", err)
	}

	c.Start()
	logRecalc("Scheduler started with spec " + spec)
	return c
}
