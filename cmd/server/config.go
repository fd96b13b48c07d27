package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/todmy/doc-checker/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(redacted(*cfg))
		if err != nil {
			return eris.Wrap(err, "config: marshal")
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

// redacted hides API keys except for their last four characters
func redacted(c config.Config) config.Config {
	c.OpenAI.Key = maskKey(c.OpenAI.Key)
	c.Anthropic.Key = maskKey(c.Anthropic.Key)
	return c
}

func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
