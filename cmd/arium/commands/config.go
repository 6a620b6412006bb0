package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/arium-client/internal/constants"
)

// Config represents the CLI configuration.
type Config struct {
	API               string     `json:"api,omitempty"              yaml:"api,omitempty"`
	Tenant            string     `json:"tenant,omitempty"           yaml:"tenant,omitempty"`
	Token             string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt    *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	ClientID          string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret      string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	TokenURL          string     `json:"token_url,omitempty"        yaml:"token_url,omitempty"`
	NATSURL           string     `json:"nats_url,omitempty"         yaml:"nats_url,omitempty"`
	Output            string     `json:"output,omitempty"           yaml:"output,omitempty"`
	SkipSSLValidation bool       `json:"skip_ssl_validation"        yaml:"skip_ssl_validation"`
}

// configKeys are the keys accepted by config set and unset.
var configKeys = []string{
	"api", "tenant", "token", "client_id", "client_secret", "token_url", "nats_url", "output", "skip_ssl_validation",
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage arium CLI configuration including the platform endpoint, tenant and credentials",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig().masked()

			format, err := outputFormat()
			if err != nil {
				return err
			}

			switch format {
			case constants.FormatJSON:
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")

				return encoder.Encode(config)
			case constants.FormatYAML:
				return yaml.NewEncoder(cmd.OutOrStdout()).Encode(config)
			default:
				return displayConfigTable(cmd, config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: api, tenant, token, client_id, client_secret, token_url, nats_url, output, skip_ssl_validation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := config.set(args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := config.set(args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func (c *Config) set(key, value string) error {
	switch key {
	case "api":
		c.API = value
	case "tenant":
		c.Tenant = value
	case "token":
		c.Token = value
		c.TokenExpiresAt = nil
	case "client_id":
		c.ClientID = value
	case "client_secret":
		c.ClientSecret = value
	case "token_url":
		c.TokenURL = value
	case "nats_url":
		c.NATSURL = value
	case "output":
		if value != "" && !validFormat(value) {
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		c.Output = value
	case "skip_ssl_validation":
		if value == "" {
			c.SkipSSLValidation = false

			return nil
		}

		skip, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("skip_ssl_validation: %w", err)
		}

		c.SkipSSLValidation = skip
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

func (c *Config) masked() *Config {
	out := *c
	if out.Token != "" {
		out.Token = maskSecret(out.Token)
	}

	if out.ClientSecret != "" {
		out.ClientSecret = maskSecret(out.ClientSecret)
	}

	return &out
}

func maskSecret(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return "****"
	}

	return secret[:visible] + "****"
}

func displayConfigTable(cmd *cobra.Command, config *Config) error {
	values := map[string]string{
		"api":                 config.API,
		"tenant":              config.Tenant,
		"token":               config.Token,
		"client_id":           config.ClientID,
		"client_secret":       config.ClientSecret,
		"token_url":           config.TokenURL,
		"nats_url":            config.NATSURL,
		"output":              config.Output,
		"skip_ssl_validation": strconv.FormatBool(config.SkipSSLValidation),
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Key", "Value")

	for _, key := range keys {
		value := values[key]
		if value == "" {
			value = constants.NotAvailable
		}

		_ = table.Append(key, value)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func loadConfig() *Config {
	config := &Config{
		API:               viper.GetString("api"),
		Tenant:            viper.GetString("tenant"),
		Token:             viper.GetString("token"),
		ClientID:          viper.GetString("client_id"),
		ClientSecret:      viper.GetString("client_secret"),
		TokenURL:          viper.GetString("token_url"),
		NATSURL:           viper.GetString("nats_url"),
		Output:            viper.GetString("output"),
		SkipSSLValidation: viper.GetBool("skip_ssl_validation"),
	}

	if viper.IsSet("token_expires_at") {
		expiresAt := viper.GetTime("token_expires_at")
		if !expiresAt.IsZero() {
			config.TokenExpiresAt = &expiresAt
		}
	}

	return config
}

// configFilePath returns the file the configuration is written to.
func configFilePath() (string, error) {
	if file := viper.GetString("config"); file != "" {
		return file, nil
	}

	if file := viper.ConfigFileUsed(); file != "" {
		return file, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".arium", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigPersister implements the auth.ConfigPersister interface by writing
// renewed tokens back to the configuration file.
type ConfigPersister struct {
	mutex sync.Mutex
	load  func() *Config
	save  func(*Config) error
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{load: loadConfig, save: saveConfigStruct}
}

// UpdateToken stores token for tenant. Tokens of other tenants are ignored.
func (p *ConfigPersister) UpdateToken(tenant, token string, expiresAt time.Time) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := p.load()
	if config.Tenant != tenant {
		return nil
	}

	config.Token = token
	config.TokenExpiresAt = nil

	if !expiresAt.IsZero() {
		config.TokenExpiresAt = &expiresAt
	}

	return p.save(config)
}
