package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sari-edu/sari/internal/llm"
	"github.com/sari-edu/sari/internal/server"
	"github.com/sari-edu/sari/internal/store"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the worksheet HTTP service",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8000", "HTTP listen address")
	f.String("db", "sari.db", "SQLite database path")
	f.String("llm-url", "https://generativelanguage.googleapis.com/v1beta/openai/", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM (or set SARI_LLM_KEY)")
	f.String("llm-model", "gemini-2.0-flash", "LLM model name")
	f.Bool("no-llm", false, "Run without an LLM: generation fails and feedback uses the fallback text")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	l, err := newLLM(context.Background(), v)
	if err != nil {
		return err
	}
	h := server.New(db, l)

	count, err := db.WorksheetCount()
	if err != nil {
		return fmt.Errorf("count worksheets: %w", err)
	}

	addr := v.GetString("addr")
	lang := v.GetString("lang")
	slog.Info("starting server",
		"addr", addr,
		"db", v.GetString("db"),
		"worksheets", count,
		"llm", !v.GetBool("no-llm"),
		"lang", lang,
	)
	return http.ListenAndServe(addr, h.Router(lang))
}

// newLLM creates the LLM client and checks its endpoint. With --no-llm it
// returns a nil LLM, so the server falls back for generation and feedback.
func newLLM(ctx context.Context, v *viper.Viper) (server.LLM, error) {
	if v.GetBool("no-llm") {
		return nil, nil
	}
	llmClient, err := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}
	if err := llmClient.Ping(ctx); err != nil {
		return nil, fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", llmClient.Model())
	return llmClient, nil
}
