package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/metrics"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const (
	NoMenuMessage  = "Sorry, the restaurant has no menu available today, so we cannot make a suggestion."
	ApologyMessage = "Sorry, we could not get a meal suggestion right now. Please try again later."
)

const chefSystemPrompt = `You are an experienced head chef and restaurant advisor. Help the guest put together a balanced, delicious meal.
Follow these rules:
1. Analyse: briefly describe the flavour of the dishes the guest already chose. If nothing is chosen yet, work from their preferences.
2. Recommend: suggest 1-3 dishes, soups or drinks that complement the selection and the preferences.
3. Explain: give a clear reason for every recommendation.
4. Keep a professional, friendly tone.
5. Every recommendation MUST come from the "Today's menu" list supplied by the user. Never recommend anything that is not on it.
6. Format the answer in Markdown.`

// MenuSource supplies the live available menu.
type MenuSource interface {
	ListMenuItems(ctx context.Context, includeUnavailable bool) ([]models.MenuEntry, error)
}

// RecommendationService pairs dishes using an external chat model constrained
// to the current menu.
type RecommendationService struct {
	menu      MenuSource
	completer Completer
	log       logrus.FieldLogger
}

func NewRecommendationService(menu MenuSource, completer Completer, log logrus.FieldLogger) *RecommendationService {
	return &RecommendationService{menu: menu, completer: completer, log: utils.Logger(log)}
}

// Suggest returns suggestion text for the guest. Upstream failures are logged
// and collapsed into ApologyMessage; only a failed menu read returns an error.
func (s *RecommendationService) Suggest(ctx context.Context, currentDishes []string, preferences string) (string, error) {
	// The menu read completes and releases its connection before the model call.
	menu, err := s.menu.ListMenuItems(ctx, false)
	if err != nil {
		return "", err
	}
	if len(menu) == 0 {
		return NoMenuMessage, nil
	}

	start := time.Now()
	text, err := s.completer.Complete(ctx, chefSystemPrompt, BuildSuggestionPrompt(currentDishes, preferences, menu))
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := UpstreamConnection
		var ue *UpstreamError
		if errors.As(err, &ue) {
			kind = ue.Kind
		}
		metrics.RecommendationFailuresTotal.WithLabelValues(string(kind)).Inc()
		s.log.WithError(err).WithField("kind", kind).Warn("recipe suggestion failed")
		return ApologyMessage, nil
	}
	return text, nil
}

// BuildSuggestionPrompt lists the menu verbatim, then the guest's selection
// and preferences.
func BuildSuggestionPrompt(currentDishes []string, preferences string, menu []models.MenuEntry) string {
	var b strings.Builder
	b.WriteString("Today's menu:\n---\n")
	for _, item := range menu {
		fmt.Fprintf(&b, "- %s (category: %s, description: %s)\n", item.Name, item.CategoryName, item.Description)
	}
	b.WriteString("---\n\n")

	dishes := make([]string, 0, len(currentDishes))
	for _, d := range currentDishes {
		if d = strings.TrimSpace(d); d != "" {
			dishes = append(dishes, d)
		}
	}
	if len(dishes) == 0 {
		b.WriteString("The guest has not ordered anything yet and only shared their preferences.\n")
	} else {
		b.WriteString("The guest has already chosen:\n")
		for _, d := range dishes {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	}

	if p := strings.TrimSpace(preferences); p != "" {
		fmt.Fprintf(&b, "\nThe guest's preferences: '%s'.\n", p)
	}
	b.WriteString("\nRecommend only dishes from the menu above.")
	return b.String()
}
