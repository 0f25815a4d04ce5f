package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	gvalidator "github.com/go-playground/validator/v10"

	"github.com/sallliisa/apostle-http/pkg/config"
	"github.com/sallliisa/apostle-http/pkg/logger"
	"github.com/sallliisa/apostle-http/pkg/validator"
)

// Config keys read by SettingsFromConfig.
const (
	KeyBaseURL                  = "apostle.base_url"
	KeyHeaders                  = "apostle.headers"
	KeyDefaultResponseType      = "apostle.default_response_type"
	KeyInferRequestContentType  = "apostle.infer_request_content_type"
	KeyInferResponseContentType = "apostle.infer_response_content_type"
	KeyParseObjectAsJSON        = "apostle.parse_object_as_json"
	KeyTimeout                  = "apostle.timeout"
	KeyBearerToken              = "apostle.bearer_token"
)

// ClientSettings is the config-file shape of a client.
type ClientSettings struct {
	BaseURL                  string            `key:"apostle.base_url" validate:"required,url"`
	Headers                  map[string]string `key:"apostle.headers" validate:"dive,keys,required,endkeys"`
	DefaultResponseType      string            `key:"apostle.default_response_type" validate:"required,responsetype"`
	InferRequestContentType  bool              `key:"apostle.infer_request_content_type"`
	InferResponseContentType bool              `key:"apostle.infer_response_content_type"`
	ParseObjectAsJSON        bool              `key:"apostle.parse_object_as_json"`
	Timeout                  time.Duration     `key:"apostle.timeout" validate:"gte=0"`
	BearerToken              string            `key:"apostle.bearer_token"`
}

var settingsValidator = newSettingsValidator()

func newSettingsValidator() *validator.Validator {
	v := validator.New()
	v.MustRegisterValidation("responsetype", func(fl gvalidator.FieldLevel) bool {
		_, err := ParseResponseType(fl.Field().String())
		return err == nil
	})
	v.RegisterTagMessage("responsetype", func(fe gvalidator.FieldError) string {
		return fmt.Sprintf("%s must be one of raw, json, text, blob, formData, arrayBuffer; got %q", fe.Field(), fe.Value())
	})
	return v
}

// SettingsFromConfig reads and validates client settings. Flags default
// to DefaultConfiguration.
func SettingsFromConfig(cfg *config.Config) (ClientSettings, error) {
	def := DefaultConfiguration()
	s := ClientSettings{
		BaseURL:                  cfg.GetString(KeyBaseURL),
		Headers:                  cfg.GetStringMapString(KeyHeaders),
		DefaultResponseType:      cfg.GetStringD(KeyDefaultResponseType, def.DefaultResponseType.String()),
		InferRequestContentType:  cfg.GetBoolD(KeyInferRequestContentType, def.InferRequestBodyContentType),
		InferResponseContentType: cfg.GetBoolD(KeyInferResponseContentType, def.InferResponseBodyContentType),
		ParseObjectAsJSON:        cfg.GetBoolD(KeyParseObjectAsJSON, def.ParseObjectAsJSON),
		Timeout:                  cfg.GetDurationD(KeyTimeout, 0),
		BearerToken:              cfg.GetString(KeyBearerToken),
	}
	if err := settingsValidator.Struct(s); err != nil {
		return ClientSettings{}, fmt.Errorf("invalid client settings: %w", err)
	}
	return s, nil
}

// Options turns settings into client options.
func (s ClientSettings) Options() ([]ClientOption, error) {
	rt, err := ParseResponseType(s.DefaultResponseType)
	if err != nil {
		return nil, err
	}

	header := make(http.Header, len(s.Headers))
	for k, v := range s.Headers {
		header.Set(k, v)
	}

	opts := []ClientOption{
		WithBaseURL(s.BaseURL),
		WithBaseInit(Init{Header: header, Timeout: s.Timeout}),
		WithConfiguration(Configuration{
			DefaultResponseType:          rt,
			InferRequestBodyContentType:  s.InferRequestContentType,
			InferResponseBodyContentType: s.InferResponseContentType,
			ParseObjectAsJSON:            s.ParseObjectAsJSON,
		}),
	}
	if s.BearerToken != "" {
		opts = append(opts, WithInterceptor(BearerInterceptor(NewTokenCache(NewStaticTokenProvider(s.BearerToken), 0))))
	}
	return opts, nil
}

// OptionsFromConfig reads, validates and converts the client settings in cfg.
func OptionsFromConfig(cfg *config.Config) ([]ClientOption, error) {
	s, err := SettingsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return s.Options()
}

// NewClientFromConfig builds a client from config. extra options are
// applied after the config-derived ones and win on conflict.
func NewClientFromConfig(cfg *config.Config, log logger.LogManager, extra ...ClientOption) (*Client, error) {
	opts, err := OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if log != nil {
		opts = append(opts, WithLogger(log))
	}
	return NewClient(append(opts, extra...)...)
}

// Reloadable holds a Client built from config and swaps it for a new one
// when the config changes. Each dispatch uses the client current at its
// start; clients themselves are never mutated.
type Reloadable struct {
	cfg     *config.Config
	log     logger.LogManager
	extra   []ClientOption
	current atomic.Pointer[Client]
}

// NewReloadable builds the first client from cfg.
func NewReloadable(cfg *config.Config, log logger.LogManager, extra ...ClientOption) (*Reloadable, error) {
	r := &Reloadable{cfg: cfg, log: log, extra: extra}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rebuilds the client from the current config. On error the
// previous client stays in place.
func (r *Reloadable) Reload() error {
	c, err := NewClientFromConfig(r.cfg, r.log, r.extra...)
	if err != nil {
		return err
	}
	r.current.Store(c)
	return nil
}

// Watch reloads the client whenever the config file changes.
func (r *Reloadable) Watch() error {
	return config.WithWatch(func(e fsnotify.Event) {
		if err := r.Reload(); err != nil {
			if r.log != nil {
				r.log.ErrorF("config reload from %s failed, keeping previous client: %v", e.Name, err)
			}
			return
		}
		if r.log != nil {
			r.log.InfoF("client rebuilt after config change: %s", e.Name)
		}
	})(r.cfg)
}

// Client returns the current client.
func (r *Reloadable) Client() *Client { return r.current.Load() }

func (r *Reloadable) Dispatch(ctx context.Context, req *Request) (any, error) {
	return r.Client().Dispatch(ctx, req)
}

func (r *Reloadable) Get(ctx context.Context, path string, opts ...CallOption) (any, error) {
	return r.Client().Get(ctx, path, opts...)
}

func (r *Reloadable) Post(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return r.Client().Post(ctx, path, body, opts...)
}

func (r *Reloadable) Put(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return r.Client().Put(ctx, path, body, opts...)
}

func (r *Reloadable) Patch(ctx context.Context, path string, body Body, opts ...CallOption) (any, error) {
	return r.Client().Patch(ctx, path, body, opts...)
}

func (r *Reloadable) Delete(ctx context.Context, path string, opts ...CallOption) (any, error) {
	return r.Client().Delete(ctx, path, opts...)
}
