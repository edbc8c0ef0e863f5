package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rockquest/rockquest-backend/internal/handlers"
	"github.com/rockquest/rockquest-backend/internal/middleware"
	"github.com/rockquest/rockquest-backend/internal/models"
)

func SetupRoutes(r *chi.Mux) {
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Profile completion runs before the user row exists, so it only needs
	// a verified token.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireIdentity)
		r.Post("/api/complete-profile", handlers.CompleteProfile)
	})

	// Any authenticated active user
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole())

		r.Get("/api/profile", handlers.GetProfile)
		r.Put("/api/update-profile", handlers.UpdateProfile)
		r.Delete("/api/delete-account", handlers.DeleteAccount)

		r.Get("/api/my-posts", handlers.GetMyPosts)
		r.Get("/api/all-posts", handlers.GetAllPosts)
		r.Post("/api/add-post", handlers.AddPost)
		r.Put("/api/edit-post/{postID}", handlers.EditPost)
		r.Delete("/api/delete-post/{postID}", handlers.DeletePost)
		r.Post("/api/report-post", handlers.ReportPost)

		r.Get("/api/facts", handlers.GetFacts)
		r.Get("/api/announcements", handlers.GetAnnouncements)

		r.Post("/api/upload", handlers.UploadImage)
	})

	// Player routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RolePlayer))

		r.Post("/api/player/scan-rock", handlers.ScanRock)
		r.Get("/api/player/rocks", handlers.GetMyRocks)
		r.Post("/api/player/add-rock", handlers.AddRock)
		r.Delete("/api/player/delete-rock/{rockID}", handlers.DeleteRock)
		r.Get("/api/player/gps-rocks", handlers.GetGPSRocks)
		r.Get("/api/player/daily-quests", handlers.GetDailyQuests)
		r.Get("/api/player/quests-summary", handlers.GetQuestsSummary)
		r.Get("/api/player/achievements", handlers.GetAchievements)
		r.Get("/api/player/my-stats", handlers.GetMyStats)
		r.Get("/api/player/scan-stats", handlers.GetScanStats)
		r.Post("/api/player/view-fact/{factID}", handlers.ViewFact)

		// WebSocket endpoint for realtime unlock notifications
		r.Get("/ws/notifications", handlers.NotificationsWebSocket)
	})

	// Geologist routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleGeologist))

		r.Get("/api/geologist/posts", handlers.GetAllPosts)
		r.Post("/api/geologist/add-post", handlers.AddPost)
		r.Put("/api/geologist/edit-post/{postID}", handlers.EditPost)
		r.Delete("/api/geologist/delete-post/{postID}", handlers.DeletePost)

		r.Get("/api/geologist/facts", handlers.GetFacts)
		r.Post("/api/geologist/add-fact", handlers.AddFact)
		r.Put("/api/geologist/edit-fact/{factID}", handlers.EditFact)
		r.Delete("/api/geologist/delete-fact/{factID}", handlers.DeleteFact)

		r.Get("/api/geologist/review-rocks", handlers.GetReviewRocks)
		r.Post("/api/geologist/approve-rock/{rockID}", handlers.ApproveRock)
		r.Post("/api/geologist/reject-rock/{rockID}", handlers.RejectRock)

		r.Post("/api/geologist/comment", handlers.AddComment)
	})

	// Admin auth (admin accounts must be created directly in the database)
	r.Post("/api/admin/signin", handlers.AdminSignin)

	// Admin routes behind Redis session auth
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)

		r.Post("/api/admin/signout", handlers.AdminSignout)
		r.Get("/api/admin/dashboard", handlers.GetDashboard)

		r.Get("/api/admin/users", handlers.GetUsers)
		r.Put("/api/admin/suspend-user/{userID}", handlers.SuspendUser)
		r.Put("/api/admin/reinstate-user/{userID}", handlers.ReinstateUser)

		r.Get("/api/admin/reports", handlers.GetReports)
		r.Put("/api/admin/update-report/{reportID}", handlers.UpdateReport)
		r.Delete("/api/admin/delete-report/{reportID}", handlers.DeleteReport)

		r.Get("/api/admin/announcements", handlers.GetAnnouncements)
		r.Post("/api/admin/announcements", handlers.CreateAnnouncement)
		r.Delete("/api/admin/announcements/{announcementID}", handlers.DeleteAnnouncement)

		r.Get("/api/admin/achievements", handlers.ListAchievementCatalog)
		r.Post("/api/admin/achievements", handlers.CreateAchievement)
		r.Delete("/api/admin/achievements/{achievementID}", handlers.DeleteAchievement)

		r.Get("/api/admin/quests", handlers.ListQuestCatalog)
		r.Post("/api/admin/quests", handlers.CreateQuest)
		r.Delete("/api/admin/quests/{questID}", handlers.DeleteQuest)

		r.Put("/api/admin/unblock-ip", handlers.UnblockIP)
	})
}
