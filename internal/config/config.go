// Package config provides configuration management.
package config

import (
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"contract-pricing/core/input"
	"contract-pricing/internal/errors"
	"contract-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `hcl:"version,optional" json:"version"`

	// API contains the ledger endpoint configuration
	API APIConfig `hcl:"api,block" json:"api"`

	// Columns maps semantic row fields onto source column names
	Columns input.Columns `hcl:"columns,block" json:"columns"`

	// Loader contains create-path workflow settings
	Loader LoaderConfig `hcl:"loader,block" json:"loader"`

	// Logging contains logging configuration
	Logging logging.Config `hcl:"logging,block" json:"logging"`
}

// APIConfig contains ledger endpoint settings. Credentials are taken from
// the environment when unset.
type APIConfig struct {
	// LoginURL is the session login endpoint
	LoginURL string `hcl:"login_url,optional" json:"login_url"`

	// BaseURL is the REST base of the ledger
	BaseURL string `hcl:"base_url,optional" json:"base_url"`

	// Username for session login
	Username string `hcl:"username,optional" json:"username"`

	// Password for session login
	Password string `hcl:"password,optional" json:"password"`

	// TimeoutSeconds bounds each remote call
	TimeoutSeconds int `hcl:"timeout_seconds,optional" json:"timeout_seconds"`

	// VerifyAttempts bounds the read-verification polls after an
	// ambiguous timeout
	VerifyAttempts int `hcl:"verify_attempts,optional" json:"verify_attempts"`

	// VerifyIntervalSeconds is the pause between verification polls
	VerifyIntervalSeconds int `hcl:"verify_interval_seconds,optional" json:"verify_interval_seconds"`
}

// Timeout returns the per-call timeout
func (a APIConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// LoaderConfig contains create-path workflow settings
type LoaderConfig struct {
	// BillingIdentifierProduct is an optional product added per contract
	// with its billing identifier set to the contract number. Empty skips
	// it.
	BillingIdentifierProduct string `hcl:"billing_identifier_product,optional" json:"billing_identifier_product"`

	// DefaultContractStatus applies when the row carries none
	DefaultContractStatus string `hcl:"default_contract_status,optional" json:"default_contract_status"`

	// DefaultAccountProductStatus applies when the row carries none
	DefaultAccountProductStatus string `hcl:"default_account_product_status,optional" json:"default_account_product_status"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			LoginURL:              os.Getenv("BP_LOGIN_URL"),
			BaseURL:               os.Getenv("BP_API_BASE_URL"),
			Username:              os.Getenv("BP_USERNAME"),
			Password:              os.Getenv("BP_PASSWORD"),
			TimeoutSeconds:        30,
			VerifyAttempts:        5,
			VerifyIntervalSeconds: 1,
		},
		Columns: input.DefaultColumns(),
		Loader: LoaderConfig{
			BillingIdentifierProduct:    "Billing Identifier",
			DefaultContractStatus:       "Terminated",
			DefaultAccountProductStatus: "Active",
		},
		Logging: logging.DefaultConfig(),
	}
}

// fileConfig mirrors Config with optional blocks, so a config file only
// states what it overrides
type fileConfig struct {
	Version string          `hcl:"version,optional"`
	API     *APIConfig      `hcl:"api,block"`
	Columns *input.Columns  `hcl:"columns,block"`
	Loader  *LoaderConfig   `hcl:"loader,block"`
	Logging *logging.Config `hcl:"logging,block"`
}

// Load reads configuration from an .hcl or .json file, merges it over the
// defaults, then applies environment overrides for unset credentials.
func Load(path string) (*Config, error) {
	var file fileConfig
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "decoding config file "+path, err)
	}

	cfg := Default()
	if file.Version != "" {
		cfg.Version = file.Version
	}
	if file.API != nil {
		mergeAPI(&cfg.API, file.API)
	}
	if file.Columns != nil {
		mergeColumns(&cfg.Columns, file.Columns)
	}
	if file.Loader != nil {
		mergeLoader(&cfg.Loader, file.Loader)
	}
	if file.Logging != nil {
		mergeLogging(&cfg.Logging, file.Logging)
	}
	cfg.applyEnv()
	return cfg, nil
}

func mergeAPI(dst, src *APIConfig) {
	setString(&dst.LoginURL, src.LoginURL)
	setString(&dst.BaseURL, src.BaseURL)
	setString(&dst.Username, src.Username)
	setString(&dst.Password, src.Password)
	if src.TimeoutSeconds > 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.VerifyAttempts > 0 {
		dst.VerifyAttempts = src.VerifyAttempts
	}
	if src.VerifyIntervalSeconds > 0 {
		dst.VerifyIntervalSeconds = src.VerifyIntervalSeconds
	}
}

func mergeColumns(dst, src *input.Columns) {
	setString(&dst.Account, src.Account)
	setString(&dst.Product, src.Product)
	setString(&dst.Quantity, src.Quantity)
	setString(&dst.Currency, src.Currency)
	setString(&dst.Rate, src.Rate)
	setString(&dst.StartDate, src.StartDate)
	setString(&dst.EffectiveDate, src.EffectiveDate)
	setString(&dst.EndDate, src.EndDate)
	setString(&dst.ContractStatus, src.ContractStatus)
	setString(&dst.AccountProductStatus, src.AccountProductStatus)
	setString(&dst.ContractGroup, src.ContractGroup)
	setString(&dst.Tiers, src.Tiers)
	setString(&dst.RateOnly, src.RateOnly)
	setString(&dst.PricingOnly, src.PricingOnly)
	setString(&dst.BundleComponent, src.BundleComponent)
	setString(&dst.ExternalContractID, src.ExternalContractID)
	setString(&dst.Action, src.Action)
}

func mergeLoader(dst, src *LoaderConfig) {
	setString(&dst.BillingIdentifierProduct, src.BillingIdentifierProduct)
	setString(&dst.DefaultContractStatus, src.DefaultContractStatus)
	setString(&dst.DefaultAccountProductStatus, src.DefaultAccountProductStatus)
}

func mergeLogging(dst, src *logging.Config) {
	setString(&dst.Level, src.Level)
	setString(&dst.Format, src.Format)
	setString(&dst.Output, src.Output)
	if src.Development {
		dst.Development = true
	}
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func (c *Config) applyEnv() {
	if c.API.LoginURL == "" {
		c.API.LoginURL = os.Getenv("BP_LOGIN_URL")
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = os.Getenv("BP_API_BASE_URL")
	}
	if c.API.Username == "" {
		c.API.Username = os.Getenv("BP_USERNAME")
	}
	if c.API.Password == "" {
		c.API.Password = os.Getenv("BP_PASSWORD")
	}
}

// Validate checks that the ledger endpoints and credentials are set
func (c *Config) Validate() error {
	missing := []string{}
	if c.API.LoginURL == "" {
		missing = append(missing, "api.login_url (BP_LOGIN_URL)")
	}
	if c.API.BaseURL == "" {
		missing = append(missing, "api.base_url (BP_API_BASE_URL)")
	}
	if c.API.Username == "" {
		missing = append(missing, "api.username (BP_USERNAME)")
	}
	if c.API.Password == "" {
		missing = append(missing, "api.password (BP_PASSWORD)")
	}
	if len(missing) > 0 {
		return errors.Newf(errors.TypeConfig, "missing required settings: %v", missing)
	}
	return nil
}

var current *Config

// Set stores the active configuration
func Set(cfg *Config) {
	current = cfg
}

// Get returns the active configuration, defaulting when none was loaded
func Get() *Config {
	if current == nil {
		current = Default()
	}
	return current
}
