package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/emlakhub/emlakhub-backend/internal/activity"
	"github.com/emlakhub/emlakhub-backend/pkg/enums"
	pkgerrors "github.com/emlakhub/emlakhub-backend/pkg/errors"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
	"github.com/emlakhub/emlakhub-backend/pkg/visibility"
)

const (
	KeyContactEmail = "contact_email"
	KeyContactPhone = "contact_phone"
	KeyLogoKey      = "logo_key"
	KeyWhatsApp     = "whatsapp_number"
	siteNamePrefix  = "site_name_"
	aboutPrefix     = "about_"

	maxValueLength = 4000
)

// settingsNamespace derives stable aggregate ids for setting keys.
var settingsNamespace = uuid.MustParse("5b0c9a3e-3f4d-4d0a-9c1e-6f5a2d9b7e41")

// keyRules are validator tags applied to each value. An empty value clears the
// setting back to its default.
var keyRules = buildKeyRules()

func buildKeyRules() map[string]string {
	rules := map[string]string{
		KeyContactEmail: "omitempty,email",
		KeyContactPhone: "omitempty,max=32",
		KeyLogoKey:      "omitempty,max=512",
		KeyWhatsApp:     "omitempty,e164",
	}
	for _, locale := range enums.Locales() {
		rules[siteNamePrefix+string(locale)] = "omitempty,max=120"
		rules[aboutPrefix+string(locale)] = fmt.Sprintf("omitempty,max=%d", maxValueLength)
	}
	return rules
}

// SiteSettings is the public view of the settings, resolved for one locale.
type SiteSettings struct {
	Locale       enums.Locale      `json:"locale"`
	SiteName     string            `json:"site_name"`
	About        string            `json:"about,omitempty"`
	ContactEmail string            `json:"contact_email,omitempty"`
	ContactPhone string            `json:"contact_phone,omitempty"`
	WhatsApp     string            `json:"whatsapp_number,omitempty"`
	LogoKey      string            `json:"logo_key,omitempty"`
	Raw          map[string]string `json:"-"`
}

// Service reads and updates site settings.
type Service interface {
	Get(ctx context.Context, locale enums.Locale) (*SiteSettings, error)
	All(ctx context.Context, actor visibility.Actor) (map[string]string, error)
	Update(ctx context.Context, actor visibility.Actor, values map[string]string) (map[string]string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo        *Repository
	tx          txRunner
	activity    activity.Emitter
	validate    *validator.Validate
	logg        *logger.Logger
	now         func() time.Time
	defaultName string
}

// NewService wires the settings dependencies. defaultName is served when no
// localized site name has been configured.
func NewService(repo *Repository, tx txRunner, emitter activity.Emitter, logg *logger.Logger, defaultName string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("activity emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		activity:    emitter,
		validate:    validator.New(),
		logg:        logg,
		now:         time.Now,
		defaultName: defaultName,
	}, nil
}

// Get resolves the public settings for locale. Missing localized values fall
// back to the default locale, then to the configured site name.
func (s *service) Get(ctx context.Context, locale enums.Locale) (*SiteSettings, error) {
	if !locale.IsValid() {
		locale = enums.DefaultLocale
	}
	raw, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	localized := func(prefix string) string {
		if value := raw[prefix+string(locale)]; value != "" {
			return value
		}
		return raw[prefix+string(enums.DefaultLocale)]
	}
	name := localized(siteNamePrefix)
	if name == "" {
		name = s.defaultName
	}
	return &SiteSettings{
		Locale:       locale,
		SiteName:     name,
		About:        localized(aboutPrefix),
		ContactEmail: raw[KeyContactEmail],
		ContactPhone: raw[KeyContactPhone],
		WhatsApp:     raw[KeyWhatsApp],
		LogoKey:      raw[KeyLogoKey],
		Raw:          raw,
	}, nil
}

func (s *service) All(ctx context.Context, actor visibility.Actor) (map[string]string, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "settings are restricted to administrators")
	}
	return s.load(ctx)
}

// Update validates and writes values, emitting one settings_updated entry per
// changed key.
func (s *service) Update(ctx context.Context, actor visibility.Actor, values map[string]string) (map[string]string, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may change settings")
	}
	if len(values) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no settings provided")
	}

	cleaned := make(map[string]string, len(values))
	invalid := map[string]string{}
	for key, value := range values {
		rule, ok := keyRules[key]
		if !ok {
			invalid[key] = "unknown setting"
			continue
		}
		value = strings.TrimSpace(value)
		if key == KeyContactEmail {
			value = strings.ToLower(value)
		}
		if err := s.validate.Var(value, rule); err != nil {
			invalid[key] = "invalid value"
			continue
		}
		cleaned[key] = value
	}
	if len(invalid) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid settings").WithDetails(invalid)
	}

	current, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]string, len(cleaned))
	for key, value := range cleaned {
		if current[key] != value {
			changed[key] = value
		}
	}
	if len(changed) == 0 {
		return current, nil
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Upsert(ctx, changed, actor.ID, s.now().UTC())
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update settings")
	}

	keys := make([]string, 0, len(changed))
	for key := range changed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		subject := SubjectID(key)
		s.activity.Emit(ctx, activity.Entry{
			Actor:     actor,
			Kind:      enums.ActivitySettingsUpdated,
			SubjectID: &subject,
			Details: map[string]any{
				"key":      key,
				"previous": current[key],
				"value":    changed[key],
			},
		})
		current[key] = changed[key]
	}
	s.logg.Info(s.logg.WithField(ctx, "keys", keys), "site settings updated")
	return current, nil
}

// SubjectID is the stable aggregate id used for a setting key in activity
// and outbox records.
func SubjectID(key string) uuid.UUID {
	return uuid.NewSHA1(settingsNamespace, []byte(key))
}

func (s *service) load(ctx context.Context) (map[string]string, error) {
	rows, err := s.repo.All(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load settings")
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}
