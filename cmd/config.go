package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/autoanalyst-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set AutoAnalyst configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		shown := *cfg
		shown.APIKey = mask(shown.APIKey)
		b, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// setKey assigns val to the config field named key, parsing it by type.
func setKey(c *cfgpkg.Global, key, val string) error {
	strs := map[string]*string{
		"data_dir":      &c.DataDir,
		"history_dir":   &c.HistoryDir,
		"unknown_token": &c.UnknownToken,
		"log_level":     &c.LogLevel,
		"log_format":    &c.LogFormat,
		"listen_addr":   &c.ListenAddr,
		"provider":      &c.Provider,
		"model":         &c.Model,
		"api_key":       &c.APIKey,
		"ollama_host":   &c.OllamaHost,
	}
	ints := map[string]*int{
		"preview_rows":        &c.PreviewRows,
		"sample_rows":         &c.SampleRows,
		"max_categories":      &c.MaxCategories,
		"max_classes":         &c.MaxClasses,
		"n_trees":             &c.NTrees,
		"workers":             &c.Workers,
		"top_features":        &c.TopFeatures,
		"max_tokens":          &c.MaxTokens,
		"chat_rows":           &c.ChatRows,
		"history_turns":       &c.HistoryTurns,
		"record_tokens":       &c.RecordTokens,
		"http_timeout_sec":    &c.HTTPTimeoutSec,
		"retry_max_attempts":  &c.RetryMaxAttempts,
		"retry_base_delay_ms": &c.RetryBaseDelayMs,
		"retry_max_delay_ms":  &c.RetryMaxDelayMs,
	}
	int64s := map[string]*int64{
		"seed":        &c.Seed,
		"sample_seed": &c.SampleSeed,
	}
	floats := map[string]*float64{
		"numeric_threshold": &c.NumericThreshold,
		"test_fraction":     &c.TestFraction,
		"temperature":       &c.Temperature,
	}
	if p, ok := strs[key]; ok {
		if key == "provider" {
			switch strings.ToLower(val) {
			case "openrouter":
				val = "openrouter"
			case "ollama", "local":
				val = "ollama"
			default:
				return fmt.Errorf("invalid provider: %s (use openrouter or ollama)", val)
			}
		}
		*p = val
		return nil
	}
	if p, ok := ints[key]; ok {
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		*p = i
		return nil
	}
	if p, ok := int64s[key]; ok {
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %w", key, err)
		}
		*p = i
		return nil
	}
	if p, ok := floats[key]; ok {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for %s: %w", key, err)
		}
		*p = f
		return nil
	}
	var known []string
	for k := range strs {
		known = append(known, k)
	}
	for k := range ints {
		known = append(known, k)
	}
	for k := range int64s {
		known = append(known, k)
	}
	for k := range floats {
		known = append(known, k)
	}
	sort.Strings(known)
	return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(known, ", "))
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
