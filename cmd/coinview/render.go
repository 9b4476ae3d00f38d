package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/newthinker/coinview/internal/api/handler/web"
	"github.com/newthinker/coinview/internal/coinview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var renderJSON bool

var renderCmd = &cobra.Command{
	Use:   "render [coin-id]",
	Short: "Fetch a coin and print its page",
	Long:  "Fetch a coin from CoinGecko and print the rendered HTML page, or the page model with --json.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "print the page model as JSON")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	svc, err := newService(cfg, log, nil, nil)
	if err != nil {
		return err
	}

	builder := newBuilder(cfg)
	v := coinview.NewView(svc, log)
	v.Mount(cmd.Context(), args[0])
	defer v.Unmount()

	// The client timeout bounds the fetch; the margin covers decoding.
	state := v.Wait(cmd.Context(), cfg.CoinGecko.Timeout+time.Second)
	page := builder.Build(state)

	log.Debug("coin rendered",
		zap.String("coin", args[0]),
		zap.String("kind", string(page.Kind)),
	)

	if err := writePage(cmd.OutOrStdout(), cfg.Server.TemplatesDir, page, log); err != nil {
		return err
	}
	if page.Kind == coinview.KindError {
		return fmt.Errorf("rendering %s: %w", args[0], state.Cause)
	}
	return nil
}

// writePage prints page as HTML, or as JSON with --json.
func writePage(w io.Writer, templatesDir string, page coinview.Page, log *zap.Logger) error {
	if renderJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	h, err := web.NewHandler(nil, nil, web.Options{TemplatesDir: templatesDir}, log)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	return h.WriteCoinPage(w, page)
}
