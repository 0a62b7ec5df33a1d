package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/pkg/logger"
)

// RenderedTemplate is the substituted output of a stored notification template.
type RenderedTemplate struct {
	Title   string
	Message string
}

// TemplateService renders stored notification templates. A missing template is
// never an error; callers fall back to their literal content.
type TemplateService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(db *gorm.DB) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	return &TemplateService{db: db, log: logger.WithModule("templates")}, nil
}

// Render looks up the active template for a (type, method) pair and substitutes
// {name} placeholders from vars. The second return reports whether a template
// was found; lookup failures are logged and treated as a miss. When duplicate
// active rows exist for a key the newest one wins.
func (s *TemplateService) Render(ctx context.Context, notificationType string, method models.DeliveryMethod, vars map[string]string) (RenderedTemplate, bool) {
	ctx = ensureContext(ctx)

	var tpl models.NotificationTemplate
	err := s.db.WithContext(ctx).
		Where("type = ? AND method = ? AND is_active = ?", notificationType, method, true).
		Order("created_at DESC").
		First(&tpl).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("template lookup failed",
				zap.String("notification_type", notificationType),
				zap.String("method", string(method)),
				zap.Error(err))
		}
		return RenderedTemplate{}, false
	}

	return RenderedTemplate{
		Title:   substitute(tpl.TitleTemplate, vars),
		Message: substitute(tpl.MessageTemplate, vars),
	}, true
}

// substitute replaces {name} placeholders with values from vars. Placeholders
// without a value are left verbatim.
func substitute(template string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(template, "{") {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, fmt.Sprintf("{%s}", name), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
