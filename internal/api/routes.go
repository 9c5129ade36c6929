package api

import (
	"net/http"

	"github.com/Minpi-0/Health-Tracker/internal/auth"
	"github.com/Minpi-0/Health-Tracker/internal/tracker"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	authService auth.Service,
	manager *tracker.Manager,
	bootstrapToken string,
) {
	authHandler := NewAuthHandler(authService, bootstrapToken)
	trackerHandler := NewTrackerHandler(manager)

	authMiddleware := AuthMiddleware(authService)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/anonymous", authHandler.SignInAnonymous)
			authGroup.POST("/token", authHandler.SignInWithToken)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.POST("/auth/signout", authHandler.SignOut)

		protected.GET("/me", func(c *gin.Context) {
			userID, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			anonymous, _ := c.Get(ContextAnonymousKey)
			c.JSON(http.StatusOK, gin.H{"userId": userID, "anonymous": anonymous})
		})

		// --- View Routing ---
		protected.GET("/view", trackerHandler.GetView)
		protected.PUT("/view", trackerHandler.SetView)

		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			planGroup.GET("", trackerHandler.ListPlans)
			planGroup.POST("", trackerHandler.CreatePlan)
			planGroup.DELETE("/:planId", trackerHandler.DeletePlan)
			planGroup.POST("/:planId/activate", trackerHandler.ActivatePlan)
		}

		// --- Entry Editor Routes ---
		editorGroup := protected.Group("/editor")
		{
			editorGroup.GET("", trackerHandler.GetEditor)
			editorGroup.POST("/open", trackerHandler.OpenEditor)
			editorGroup.POST("/close", trackerHandler.CloseEditor)
			editorGroup.PATCH("/workout", trackerHandler.PatchWorkoutDraft)
			editorGroup.PATCH("/diet", trackerHandler.PatchDietDraft)
			editorGroup.POST("/workout/body-parts/toggle", trackerHandler.ToggleBodyPart)
			editorGroup.POST("/workout/exercises/toggle", trackerHandler.ToggleExercise)
			editorGroup.POST("/workout/exercises/sets", trackerHandler.SetExerciseSets)
			editorGroup.POST("/diet/tags/toggle", trackerHandler.ToggleDietTag)
			editorGroup.POST("/diet/insert/:slot", trackerHandler.QuickInsertFood)
			editorGroup.POST("/save", trackerHandler.SaveEntry)
			editorGroup.POST("/delete", trackerHandler.DeleteEntry)
		}

		// POST /api/v1/reinforcement/complete
		protected.POST("/reinforcement/complete", trackerHandler.CompleteReinforcement)

		// --- Common Food Routes ---
		foodGroup := protected.Group("/foods")
		{
			foodGroup.GET("", trackerHandler.ListFoods)
			foodGroup.POST("/:slot", trackerHandler.AddFood)
			foodGroup.DELETE("/:slot/:index", trackerHandler.RemoveFood)
			foodGroup.POST("/:slot/:index/pin", trackerHandler.TogglePin)
		}
	}
}
