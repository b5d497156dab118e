package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ShahiRB/somaticseq/internal/consensus"
)

const (
	configName = ".somaticseq"
	envPrefix  = "SOMATICSEQ"
)

// settings mirrors the config file layout.
type settings struct {
	Reconcile  reconcileSettings    `mapstructure:"reconcile" yaml:"reconcile"`
	Thresholds consensus.Thresholds `mapstructure:"thresholds" yaml:"thresholds"`
}

type reconcileSettings struct {
	PassScore      float64 `mapstructure:"pass_score" yaml:"pass_score"`
	RejectScore    float64 `mapstructure:"reject_score" yaml:"reject_score"`
	NumCallers     int     `mapstructure:"num_callers" yaml:"num_callers"`
	MissingColumns string  `mapstructure:"missing_columns" yaml:"missing_columns"`
}

func defaultSettings() settings {
	opts := consensus.DefaultOptions()
	return settings{
		Reconcile: reconcileSettings{
			PassScore:      opts.PassScore,
			RejectScore:    opts.RejectScore,
			NumCallers:     opts.NumCallers,
			MissingColumns: opts.Policy.String(),
		},
		Thresholds: opts.Thresholds,
	}
}

// initConfig wires the config file and SOMATICSEQ_* environment into viper.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// bindEnv maps nested keys to SOMATICSEQ_* variables, e.g.
// thresholds.min_var_depth to SOMATICSEQ_THRESHOLDS_MIN_VAR_DEPTH.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// registerDefaults makes every leaf key known to viper so environment
// overrides reach Unmarshal.
func registerDefaults(v *viper.Viper) error {
	out, err := yaml.Marshal(defaultSettings())
	if err != nil {
		return fmt.Errorf("marshaling defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(out, &tree); err != nil {
		return fmt.Errorf("unmarshaling defaults: %w", err)
	}
	for k, val := range tree {
		v.SetDefault(k, val)
	}
	return nil
}

// loadOptions resolves flags, environment, config file and defaults into
// reconciliation options.
func loadOptions(v *viper.Viper) (consensus.Options, error) {
	if err := registerDefaults(v); err != nil {
		return consensus.Options{}, err
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return consensus.Options{}, fmt.Errorf("decoding config: %w", err)
	}

	policy, err := consensus.ParsePolicy(s.Reconcile.MissingColumns)
	if err != nil {
		return consensus.Options{}, err
	}

	return consensus.Options{
		Thresholds:  s.Thresholds,
		Policy:      policy,
		PassScore:   s.Reconcile.PassScore,
		RejectScore: s.Reconcile.RejectScore,
		NumCallers:  s.Reconcile.NumCallers,
	}, nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}
