package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/restaurant-ordering/services"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type RecommendationController struct {
	Recommender *services.RecommendationService
}

func NewRecommendationController(r *services.RecommendationService) *RecommendationController {
	return &RecommendationController{Recommender: r}
}

// Suggest always answers 200 with text; model failures arrive as an apology.
func (rc *RecommendationController) Suggest(c *gin.Context) {
	var body struct {
		CurrentDishes []string `json:"current_dishes" binding:"max=50,dive,max=255"`
		Preferences   string   `json:"preferences" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondBindError(c, err)
		return
	}

	text, err := rc.Recommender.Suggest(c.Request.Context(), body.CurrentDishes, body.Preferences)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Recipe suggestion", gin.H{"suggestion": text})
}
