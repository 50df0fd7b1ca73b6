package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all learner-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalog
	courseGroup.Get("/list", middleware.JWTMiddleware, controllers.CourseList)
	courseGroup.Get("/categories", middleware.JWTMiddleware, controllers.CategoryList)
	courseGroup.Get("/:id", middleware.JWTMiddleware, validators.CourseParam(), controllers.CourseDetail)
	courseGroup.Get("/:id/content", middleware.JWTMiddleware, validators.CourseParam(), controllers.CourseContentList)

	// Enrollment
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, validators.CourseParam(), controllers.EnrollInCourse)

	// Progress reporting
	courseGroup.Post("/:id/progress/video", middleware.JWTMiddleware, validators.CourseParam(), controllers.ReportVideoProgress)
	courseGroup.Post("/:id/progress/scorm", middleware.JWTMiddleware, validators.CourseParam(), controllers.ReportScormStatus)
	courseGroup.Post("/:id/progress/assessment", middleware.JWTMiddleware, validators.CourseParam(), controllers.SubmitAssessmentResult)
	courseGroup.Post("/:id/progress/survey", middleware.JWTMiddleware, validators.CourseParam(), controllers.SubmitSurvey)
	courseGroup.Post("/:id/progress/feedback", middleware.JWTMiddleware, validators.CourseParam(), controllers.SubmitFeedback)
	courseGroup.Post("/:id/progress/complete", middleware.JWTMiddleware, validators.CourseParam(), controllers.MarkContentComplete)

	// Completion tracking
	courseGroup.Get("/:id/completion", middleware.JWTMiddleware, validators.CourseParam(), controllers.GetCourseCompletionStatus)
	courseGroup.Post("/:id/tracking/start", middleware.JWTMiddleware, validators.CourseParam(), controllers.StartTracking)

	// Certificates
	courseGroup.Post("/:id/certificate/request", middleware.JWTMiddleware, validators.CourseParam(), controllers.RequestCertificate)
}
