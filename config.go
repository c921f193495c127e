package cosmic

import (
	"fmt"
	"maps"
	"net/http"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment is a named API base URL.
type Environment string

// Config is the resolved configuration of a call.
type Config struct {
	BaseURL     string
	Environment Environment
	Timeout     time.Duration
	Retry       RetryConfig
	Validation  ValidationConfig

	AccessToken  string
	Username     string
	Password     string
	APIKey       string
	APIKeyHeader string

	// HookParams are passed to every Hook method.
	HookParams map[string]string

	// IncludeResponseHeaders wraps decoded data in WithHeaders.
	IncludeResponseHeaders bool
}

// RetryConfig controls the retry stage.
type RetryConfig struct {
	Attempts      int
	Delay         time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        time.Duration
	StatusCodes   []int
	Methods       []string
}

// ValidationConfig toggles schema validation of request and response bodies.
type ValidationConfig struct {
	RequestValidation  bool
	ResponseValidation bool
}

const defaultTimeout = 10 * time.Second

// DefaultRetryStatusCodes are every 5xx status plus 408 and 429.
func DefaultRetryStatusCodes() []int {
	codes := []int{http.StatusRequestTimeout, http.StatusTooManyRequests}
	for code := 500; code < 600; code++ {
		codes = append(codes, code)
	}
	return codes
}

// DefaultRetryMethods are all standard HTTP methods.
func DefaultRetryMethods() []string {
	return []string{
		http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace,
	}
}

// DefaultRetryConfig returns 3 attempts, 150ms base delay, 5s max delay,
// backoff factor 2 and 50ms jitter.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:      3,
		Delay:         150 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2,
		Jitter:        50 * time.Millisecond,
		StatusCodes:   DefaultRetryStatusCodes(),
		Methods:       DefaultRetryMethods(),
	}
}

// DefaultConfig returns the configuration every call starts from.
func DefaultConfig() Config {
	return Config{
		Timeout: defaultTimeout,
		Retry:   DefaultRetryConfig(),
		Validation: ValidationConfig{
			RequestValidation:  true,
			ResponseValidation: true,
		},
	}
}

// NewConfig applies opts to DefaultConfig.
func NewConfig(opts ...Option) Config {
	return DefaultConfig().With(opts...)
}

// With returns a copy of c with opts applied in order.
func (c Config) With(opts ...Option) Config {
	out := c.clone()
	for _, o := range opts {
		o(&out)
	}
	return out
}

func (c Config) clone() Config {
	c.Retry.StatusCodes = slices.Clone(c.Retry.StatusCodes)
	c.Retry.Methods = slices.Clone(c.Retry.Methods)
	c.HookParams = maps.Clone(c.HookParams)
	return c
}

// ResolvedBaseURL returns BaseURL, or the environment URL when BaseURL is empty.
func (c Config) ResolvedBaseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return string(c.Environment)
}

// Option changes one part of a Config. Options compose from the client
// level down to a single call; later options win field by field.
type Option func(*Config)

func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

func WithEnvironment(env Environment) Option {
	return func(c *Config) { c.Environment = env }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRetry merges the non-zero fields of rc into the retry configuration.
func WithRetry(rc RetryConfig) Option {
	return func(c *Config) {
		if rc.Attempts != 0 {
			c.Retry.Attempts = rc.Attempts
		}
		if rc.Delay != 0 {
			c.Retry.Delay = rc.Delay
		}
		if rc.MaxDelay != 0 {
			c.Retry.MaxDelay = rc.MaxDelay
		}
		if rc.BackoffFactor != 0 {
			c.Retry.BackoffFactor = rc.BackoffFactor
		}
		if rc.Jitter != 0 {
			c.Retry.Jitter = rc.Jitter
		}
		if rc.StatusCodes != nil {
			c.Retry.StatusCodes = slices.Clone(rc.StatusCodes)
		}
		if rc.Methods != nil {
			c.Retry.Methods = slices.Clone(rc.Methods)
		}
	}
}

func WithRetryAttempts(n int) Option {
	return func(c *Config) { c.Retry.Attempts = n }
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.Retry.Delay = d }
}

func WithRetryMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.Retry.MaxDelay = d }
}

func WithRetryBackoffFactor(f float64) Option {
	return func(c *Config) { c.Retry.BackoffFactor = f }
}

func WithRetryJitter(d time.Duration) Option {
	return func(c *Config) { c.Retry.Jitter = d }
}

func WithRetryStatusCodes(codes ...int) Option {
	return func(c *Config) { c.Retry.StatusCodes = slices.Clone(codes) }
}

func WithRetryMethods(methods ...string) Option {
	return func(c *Config) { c.Retry.Methods = slices.Clone(methods) }
}

func WithRequestValidation(enabled bool) Option {
	return func(c *Config) { c.Validation.RequestValidation = enabled }
}

func WithResponseValidation(enabled bool) Option {
	return func(c *Config) { c.Validation.ResponseValidation = enabled }
}

func WithAccessToken(token string) Option {
	return func(c *Config) { c.AccessToken = token }
}

func WithBasicAuth(username, password string) Option {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithAPIKey sets the API key and, when header is non-empty, the header it
// is sent in.
func WithAPIKey(key, header string) Option {
	return func(c *Config) {
		c.APIKey = key
		if header != "" {
			c.APIKeyHeader = header
		}
	}
}

// WithHookParams merges params into the hook parameters.
func WithHookParams(params map[string]string) Option {
	return func(c *Config) {
		if c.HookParams == nil {
			c.HookParams = make(map[string]string, len(params))
		}
		maps.Copy(c.HookParams, params)
	}
}

func WithResponseHeaders(enabled bool) Option {
	return func(c *Config) { c.IncludeResponseHeaders = enabled }
}

// FileConfig is the YAML form of a client configuration. Absent fields
// leave the defaults untouched.
type FileConfig struct {
	BaseURL     *string        `yaml:"baseUrl"`
	Environment *string        `yaml:"environment"`
	Timeout     *time.Duration `yaml:"timeout"`
	Retry       *struct {
		Attempts      *int           `yaml:"attempts"`
		Delay         *time.Duration `yaml:"delay"`
		MaxDelay      *time.Duration `yaml:"maxDelay"`
		BackoffFactor *float64       `yaml:"backoffFactor"`
		Jitter        *time.Duration `yaml:"jitter"`
		StatusCodes   []int          `yaml:"statusCodes"`
		Methods       []string       `yaml:"methods"`
	} `yaml:"retry"`
	Validation *struct {
		Request  *bool `yaml:"request"`
		Response *bool `yaml:"response"`
	} `yaml:"validation"`
	AccessToken     *string           `yaml:"accessToken"`
	Username        *string           `yaml:"username"`
	Password        *string           `yaml:"password"`
	APIKey          *string           `yaml:"apiKey"`
	APIKeyHeader    *string           `yaml:"apiKeyHeader"`
	HookParams      map[string]string `yaml:"hookParams"`
	ResponseHeaders *bool             `yaml:"responseHeaders"`
}

// ParseConfig decodes YAML configuration. ${VAR} references are expanded
// from the environment first.
func ParseConfig(data []byte) ([]Option, error) {
	var fc FileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return nil, fmt.Errorf("cosmic: parse config: %w", err)
	}
	return fc.Options(), nil
}

// LoadConfigFile reads and parses a YAML configuration file.
func LoadConfigFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cosmic: read config: %w", err)
	}
	return ParseConfig(data)
}

// Options converts the set fields of fc to options.
func (fc FileConfig) Options() []Option {
	var opts []Option
	set := func(o Option) { opts = append(opts, o) }

	if fc.BaseURL != nil {
		set(WithBaseURL(*fc.BaseURL))
	}
	if fc.Environment != nil {
		set(WithEnvironment(Environment(*fc.Environment)))
	}
	if fc.Timeout != nil {
		set(WithTimeout(*fc.Timeout))
	}
	if r := fc.Retry; r != nil {
		if r.Attempts != nil {
			set(WithRetryAttempts(*r.Attempts))
		}
		if r.Delay != nil {
			set(WithRetryDelay(*r.Delay))
		}
		if r.MaxDelay != nil {
			set(WithRetryMaxDelay(*r.MaxDelay))
		}
		if r.BackoffFactor != nil {
			set(WithRetryBackoffFactor(*r.BackoffFactor))
		}
		if r.Jitter != nil {
			set(WithRetryJitter(*r.Jitter))
		}
		if r.StatusCodes != nil {
			set(WithRetryStatusCodes(r.StatusCodes...))
		}
		if r.Methods != nil {
			set(WithRetryMethods(r.Methods...))
		}
	}
	if v := fc.Validation; v != nil {
		if v.Request != nil {
			set(WithRequestValidation(*v.Request))
		}
		if v.Response != nil {
			set(WithResponseValidation(*v.Response))
		}
	}
	if fc.AccessToken != nil {
		set(WithAccessToken(*fc.AccessToken))
	}
	if fc.Username != nil || fc.Password != nil {
		var user, pass string
		if fc.Username != nil {
			user = *fc.Username
		}
		if fc.Password != nil {
			pass = *fc.Password
		}
		set(WithBasicAuth(user, pass))
	}
	if fc.APIKey != nil {
		header := ""
		if fc.APIKeyHeader != nil {
			header = *fc.APIKeyHeader
		}
		set(WithAPIKey(*fc.APIKey, header))
	}
	if fc.HookParams != nil {
		set(WithHookParams(fc.HookParams))
	}
	if fc.ResponseHeaders != nil {
		set(WithResponseHeaders(*fc.ResponseHeaders))
	}
	return opts
}

// WithValidation merges v into the validation toggles; a true field enables
// that check, a false field leaves it unchanged.
func WithValidation(v ValidationConfig) Option {
	return func(c *Config) {
		if v.RequestValidation {
			c.Validation.RequestValidation = true
		}
		if v.ResponseValidation {
			c.Validation.ResponseValidation = true
		}
	}
}
