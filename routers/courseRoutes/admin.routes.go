package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminCourseRoutes sets up course administration routes
func SetupAdminCourseRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.AdminMiddleware)

	// Categories and courses
	adminGroup.Post("/category", validators.CreateCategoryAdmin(), controllers.AdminCreateCategory)
	adminGroup.Post("/course", validators.CreateCourseAdmin(), controllers.AdminCreateCourse)
	adminGroup.Put("/course/:id", validators.UpdateCourseAdmin(), controllers.AdminUpdateCourse)
	adminGroup.Delete("/course/:id", validators.CourseParam(), controllers.AdminDeleteCourse)

	// Modules and content
	adminGroup.Post("/course/:id/module", validators.CreateModuleAdmin(), controllers.AdminCreateModule)
	adminGroup.Put("/course/:id/module/:moduleId", validators.UpdateModuleAdmin(), controllers.AdminUpdateModule)
	adminGroup.Delete("/course/:id/module/:moduleId", validators.ModuleParams(), controllers.AdminDeleteModule)
	adminGroup.Post("/course/:id/module/:moduleId/content", validators.CreateContentAdmin(), controllers.AdminCreateContent)
	adminGroup.Delete("/course/:id/content/:contentId", validators.ContentParams(), controllers.AdminDeleteContent)

	// Requisites
	adminGroup.Post("/course/:id/prerequisite", validators.CreatePrerequisiteAdmin(), controllers.AdminCreatePrerequisite)
	adminGroup.Post("/course/:id/postrequisite", validators.CreatePostRequisiteAdmin(), controllers.AdminCreatePostRequisite)

	// Completion recalculation
	adminGroup.Post("/course/:id/user/:userId/recalculate", validators.RecalculateParams(), controllers.AdminRecalculateCompletions)

	// Certificate requests
	adminGroup.Get("/certificate/requests", controllers.AdminListCertificateRequests)
	adminGroup.Post("/certificate/requests/:requestId/approve", validators.RequestParam(), controllers.AdminApproveCertificateRequest)
	adminGroup.Post("/certificate/requests/:requestId/reject", validators.RequestParam(), controllers.AdminRejectCertificateRequest)
}
