package tui

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/budgetchat/internal/config"
	"github.com/theirongolddev/budgetchat/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers of the setup form.
type SetupValues struct {
	Kind       string
	Endpoint   string
	Model      string
	APIKey     string
	TimeoutSec string
	Theme      string
}

// NewSetupValues prefills the form from cfg.
func NewSetupValues(cfg config.Config) *SetupValues {
	kind := cfg.Estimator.Kind
	if kind == "" {
		kind = config.EstimatorCanned
	}
	return &SetupValues{
		Kind:       kind,
		Endpoint:   cfg.Estimator.Endpoint,
		Model:      cfg.Estimator.Model,
		TimeoutSec: strconv.Itoa(int(cfg.Timeout() / time.Second)),
		Theme:      theme.ByName(cfg.Appearance.Theme).Name,
	}
}

// NewSetupForm builds the setup wizard. The endpoint and key groups only
// show for the estimator kinds that use them.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to budgetchat").
				Description("Build a construction budget by chatting with an estimator.\nThese settings are saved to "+config.ConfigPath()+"."),
			huh.NewSelect[string]().
				Title("Estimator").
				Description("Who answers your messages").
				Options(
					huh.NewOption("Offline demo (canned reply)", config.EstimatorCanned),
					huh.NewOption("HTTP estimation service", config.EstimatorHTTP),
					huh.NewOption("OpenAI-compatible chat model", config.EstimatorOpenAI),
				).
				Value(&vals.Kind),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Service endpoint").
				Placeholder("https://estimator.example.com/v1/estimate").
				Validate(validateEndpoint).
				Value(&vals.Endpoint),
		).WithHideFunc(func() bool { return vals.Kind != config.EstimatorHTTP }),
		huh.NewGroup(
			huh.NewInput().
				Title("Base URL").
				Description("Leave blank for api.openai.com").
				Value(&vals.Endpoint),
			huh.NewInput().
				Title("Model").
				Placeholder("gpt-4o-mini").
				Value(&vals.Model),
		).WithHideFunc(func() bool { return vals.Kind != config.EstimatorOpenAI }),
		huh.NewGroup(
			huh.NewInput().
				Title("API key").
				Description("Stored in the config file. "+config.APIKeyEnv+" overrides it.").
				EchoMode(huh.EchoModePassword).
				Value(&vals.APIKey),
			huh.NewInput().
				Title("Timeout (seconds)").
				Validate(validateTimeout).
				Value(&vals.TimeoutSec),
		).WithHideFunc(func() bool { return vals.Kind == config.EstimatorCanned }),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

// Apply writes the answers onto cfg. A blank API key keeps the stored one.
func (v *SetupValues) Apply(cfg config.Config) config.Config {
	cfg.Estimator.Kind = v.Kind
	cfg.Estimator.Endpoint = ""
	cfg.Estimator.Model = ""
	switch v.Kind {
	case config.EstimatorHTTP:
		cfg.Estimator.Endpoint = strings.TrimSpace(v.Endpoint)
	case config.EstimatorOpenAI:
		cfg.Estimator.Endpoint = strings.TrimSpace(v.Endpoint)
		cfg.Estimator.Model = strings.TrimSpace(v.Model)
	}
	if key := strings.TrimSpace(v.APIKey); key != "" {
		cfg.Estimator.APIKey = key
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.TimeoutSec)); err == nil && n > 0 {
		cfg.Estimator.TimeoutSec = n
	}
	cfg.Appearance.Theme = v.Theme
	return cfg
}

func validateEndpoint(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("enter an absolute http(s) URL")
	}
	return nil
}

func validateTimeout(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("enter a positive number of seconds")
	}
	return nil
}
