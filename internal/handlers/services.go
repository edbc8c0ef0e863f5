package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rockquest/rockquest-backend/internal/config"
	"github.com/rockquest/rockquest-backend/internal/services"
)

// Service singletons wired once from main.
var (
	cloudinaryService    *services.CloudinaryService
	classifier           *services.Classifier
	counterStore         services.CounterStore
	achievementEvaluator *services.AchievementEvaluator
	achievementCatalog   services.AchievementCatalog
	unlockStore          services.UnlockStore
	questEvaluator       *services.QuestEvaluator
	questCatalog         services.QuestCatalog
	uploadFolder         string
	reportingLoc         *time.Location
)

// Init wires the handler package's service singletons. Call after the
// database connections are established.
func Init(cfg *config.Config, loc *time.Location) {
	reportingLoc = loc
	uploadFolder = cfg.CloudinaryFolder

	counterStore = services.NewCounterStoreDefault(loc)

	achievementCatalog = services.NewMongoAchievementCatalog()
	unlockStore = services.NewMongoUnlockStore()
	achievementEvaluator = services.NewAchievementEvaluator(achievementCatalog, unlockStore)
	achievementEvaluator.SetNotifier(services.PublishUnlockEvent)

	questCatalog = services.NewMongoQuestCatalog()
	questEvaluator = services.NewQuestEvaluator(questCatalog, services.NewMongoCompletionStore(), counterStore, loc)

	classifier = services.NewClassifier(cfg.InferenceURL, cfg.InferenceAPIKey, cfg.MinConfidence, cfg.InferenceTimeout)
}

// InitCloudinaryService initializes the blob-store client; uploads are
// disabled when credentials are missing.
func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
