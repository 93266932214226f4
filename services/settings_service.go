package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tasknest/tasknest_backend/config"
	"github.com/tasknest/tasknest_backend/models"
)

const settingsCacheKey = config.RedisKeyPrefix + "settings:global"
const settingsCacheTTL = 5 * time.Minute

// SettingsService serves the fee-rate singleton for display and admin
// edits. Only the read path is cached; settlement transactions bypass this
// service entirely and read the document fresh inside their own session.
type SettingsService struct {
	DB    *mongo.Database
	Redis *redis.Client
}

// NewSettingsService creates a settings service
func NewSettingsService(db *mongo.Database, rdb *redis.Client) *SettingsService {
	return &SettingsService{DB: db, Redis: rdb}
}

// GetSettings returns the current fee rates, serving from cache when warm
func (ss *SettingsService) GetSettings(ctx context.Context) (*models.Settings, error) {
	if ss.Redis != nil {
		if cached, err := ss.Redis.Get(ctx, settingsCacheKey).Result(); err == nil {
			var settings models.Settings
			if json.Unmarshal([]byte(cached), &settings) == nil {
				return &settings, nil
			}
		}
	}

	var settings models.Settings
	err := ss.DB.Collection("settings").FindOne(ctx, bson.M{"_id": models.SettingsDocID}).Decode(&settings)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSettingsMissing
		}
		return nil, err
	}

	ss.cache(ctx, &settings)
	return &settings, nil
}

// UpdateSettings applies an admin edit and invalidates the cache
func (ss *SettingsService) UpdateSettings(ctx context.Context, req *models.SettingsUpdateRequest) (*models.Settings, error) {
	settings := models.Settings{
		ID:                    models.SettingsDocID,
		DepositFeePercent:     req.DepositFeePercent,
		TaskListingFee:        req.TaskListingFee,
		TaskCommissionPercent: req.TaskCommissionPercent,
		UpdatedAt:             time.Now(),
	}
	opts := options.Replace().SetUpsert(true)
	_, err := ss.DB.Collection("settings").ReplaceOne(ctx, bson.M{"_id": models.SettingsDocID}, settings, opts)
	if err != nil {
		return nil, err
	}
	if ss.Redis != nil {
		if err := ss.Redis.Del(ctx, settingsCacheKey).Err(); err != nil {
			log.Printf("Failed to invalidate settings cache: %v", err)
		}
	}
	return &settings, nil
}

func (ss *SettingsService) cache(ctx context.Context, settings *models.Settings) {
	if ss.Redis == nil {
		return
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := ss.Redis.Set(ctx, settingsCacheKey, payload, settingsCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache settings: %v", err)
	}
}
