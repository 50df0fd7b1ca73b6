package userRoutes

import (
	authControllers "lms/controllers/auth"
	controllers "lms/controllers/course"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupUserRoutes sets up the learner's own resource routes
func SetupUserRoutes(app *fiber.App) {
	userGroup := app.Group("/user")

	userGroup.Get("/profile", middleware.JWTMiddleware, authControllers.Profile)
	userGroup.Get("/enrollments", middleware.JWTMiddleware, controllers.MyEnrollments)
	userGroup.Get("/certificates", middleware.JWTMiddleware, controllers.MyCertificates)
}
