package service

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Open-WP-Club/phone-order-woo/internal/repository"
	"github.com/Open-WP-Club/phone-order-woo/pkg/logger"
)

const (
	// settingsDocKey holds the combined settings JSON document.
	settingsDocKey = "phone_order_settings"
	// legacyKeyPrefix 旧版扁平配置键前缀，优先级高于组合文档
	legacyKeyPrefix = "phone_order_"
)

// Recognized settings keys.
const (
	SettingEnabled             = "enabled"
	SettingDisplayPosition     = "display_position"
	SettingFormTitle           = "form_title"
	SettingFormSubtitle        = "form_subtitle"
	SettingFormDescription     = "form_description"
	SettingFormButtonText      = "form_button_text"
	SettingConfirmationMessage = "confirmation_message"
	SettingOutOfStockBehavior  = "out_of_stock_behavior"
	SettingEnableAnalytics     = "enable_analytics"
	SettingEnableAbilitiesAPI  = "enable_abilities_api"
)

var settingsDefaults = map[string]string{
	SettingEnabled:             "yes",
	SettingDisplayPosition:     "after_summary",
	SettingFormTitle:           "Order by Phone",
	SettingFormSubtitle:        "Quick order with just your phone number",
	SettingFormDescription:     "Enter your phone number and we'll call you to complete your order",
	SettingFormButtonText:      "Order Now",
	SettingConfirmationMessage: "Thank you! Your order has been placed. We'll contact you shortly to confirm.",
	SettingOutOfStockBehavior:  "hide",
	SettingEnableAnalytics:     "yes",
	SettingEnableAbilitiesAPI:  "yes",
}

// SettingsService 全局配置：读链路为 旧版扁平键 > 组合文档 > 内置默认值。
// 老部署只写过扁平键，所以这条优先级链不能动。
type SettingsService interface {
	// Get resolves key through the precedence chain; def wins over the
	// built-in default when the key is stored nowhere.
	Get(ctx context.Context, key, def string) string

	// GetAll returns the combined view (defaults overlaid by the stored
	// document, then by legacy keys).
	GetAll(ctx context.Context) map[string]string

	// Set 写一个键到组合文档
	Set(ctx context.Context, key, value string) error

	// SetMultiple 批量写组合文档
	SetMultiple(ctx context.Context, values map[string]string) error
}

type settingsService struct {
	repo repository.SettingsRepository

	mu     sync.RWMutex
	doc    map[string]string // combined document snapshot
	loaded bool
}

func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) Get(ctx context.Context, key, def string) string {
	// Legacy flat key takes precedence for backward compatibility.
	if val, ok, err := s.repo.Get(ctx, legacyKeyPrefix+key); err == nil && ok {
		return val
	} else if err != nil {
		logger.Warn("settings: legacy key read failed", zap.String("key", key), zap.Error(err))
	}

	doc := s.document(ctx)
	if val, ok := doc[key]; ok {
		return val
	}
	if def != "" {
		return def
	}
	return settingsDefaults[key]
}

func (s *settingsService) GetAll(ctx context.Context) map[string]string {
	out := make(map[string]string, len(settingsDefaults))
	for k, v := range settingsDefaults {
		out[k] = v
	}
	for k, v := range s.document(ctx) {
		out[k] = v
	}
	for k := range settingsDefaults {
		if val, ok, err := s.repo.Get(ctx, legacyKeyPrefix+k); err == nil && ok {
			out[k] = val
		}
	}
	return out
}

func (s *settingsService) Set(ctx context.Context, key, value string) error {
	return s.SetMultiple(ctx, map[string]string{key: value})
}

func (s *settingsService) SetMultiple(ctx context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy-on-write so concurrent readers of the snapshot are unaffected.
	doc := make(map[string]string)
	for k, v := range s.loadDocLocked(ctx) {
		doc[k] = v
	}
	for k, v := range values {
		doc[k] = v
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, settingsDocKey, string(payload)); err != nil {
		return err
	}
	s.doc = doc
	s.loaded = true
	return nil
}

// document returns the stored combined document snapshot, loading it once.
func (s *settingsService) document(ctx context.Context) map[string]string {
	s.mu.RLock()
	if s.loaded {
		doc := s.doc
		s.mu.RUnlock()
		return doc
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadDocLocked(ctx)
}

func (s *settingsService) loadDocLocked(ctx context.Context) map[string]string {
	if s.loaded {
		return s.doc
	}
	doc := make(map[string]string)
	raw, ok, err := s.repo.Get(ctx, settingsDocKey)
	if err != nil {
		logger.Warn("settings: document read failed", zap.Error(err))
		return doc
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			logger.Warn("settings: stored document malformed, falling back to defaults", zap.Error(err))
			doc = make(map[string]string)
		}
	}
	s.doc = doc
	s.loaded = true
	return doc
}
