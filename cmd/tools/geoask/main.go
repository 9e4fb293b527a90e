package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/geo-chat/backend/internal/config"
	"github.com/zhouzirui/geo-chat/backend/internal/logging"
	"github.com/zhouzirui/geo-chat/backend/internal/service/ai"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		timeout    time.Duration
		asJSON     bool
		showFormat bool
	)

	cmd := &cobra.Command{
		Use:          "geoask <question>",
		Short:        "Ask the geo answer resolver a single question",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: 无法加载 .env，改用系统环境变量: %v\n", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("配置加载失败: %w", err)
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)

			if !cfg.AI.Enabled() {
				return fmt.Errorf("Ark 凭证未配置，请先设置 ARK_API_KEY 与 ARK_MODEL")
			}
			if timeout > 0 {
				cfg.AI.ResolveTimeout = timeout
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resolver, err := ai.NewResolverFromConfig(ctx, cfg.AI)
			if err != nil {
				return err
			}
			if showFormat {
				fmt.Fprintln(cmd.ErrOrStderr(), resolver.FormatInstructions())
			}

			question := strings.Join(args, " ")
			log.Debug().Str("question", question).Msg("geoask: resolving")

			answer, err := resolver.Resolve(ctx, question)
			if err != nil {
				return err
			}
			return printAnswer(cmd.OutOrStdout(), answer, asJSON)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "request timeout, overrides AI_RESOLVE_TIMEOUT")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer as JSON")
	cmd.Flags().BoolVar(&showFormat, "show-format", false, "print the format instructions sent to the model")
	return cmd
}

func printAnswer(w io.Writer, answer ai.Answer, asJSON bool) error {
	if asJSON {
		payload := map[string]any{"answer": answer.Text, "lat": nil, "lon": nil}
		if answer.Location != nil {
			payload["lat"] = answer.Location.Lat
			payload["lon"] = answer.Location.Lon
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	if _, err := fmt.Fprintln(w, answer.Text); err != nil {
		return err
	}
	if answer.Location == nil {
		_, err := fmt.Fprintln(w, "(no location)")
		return err
	}
	_, err := fmt.Fprintf(w, "lat=%.4f lon=%.4f\n", answer.Location.Lat, answer.Location.Lon)
	return err
}
