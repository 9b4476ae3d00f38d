package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/newthinker/coinview/internal/coingecko"
	"github.com/newthinker/coinview/internal/coinview"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var replayCmd = &cobra.Command{
	Use:   "replay [archive-path | coin-id]",
	Short: "Render a page from an archived payload",
	Long: `Render a coin page from a payload archived by the server instead of
fetching it. The argument is a payload path such as
coins/bitcoin/0001700000000000000000.json, or a coin id to replay its latest
payload. Without a configured archive the path is read from the local disk.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&renderJSON, "json", false, "print the page model as JSON")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	arc, err := newArchive(cfg.Storage.Archive)
	if err != nil {
		return err
	}

	target := args[0]
	var raw []byte
	switch {
	case arc == nil:
		raw, err = os.ReadFile(target)
	case strings.HasSuffix(target, ".json"):
		raw, err = arc.Load(cmd.Context(), target)
	default:
		raw, target, err = arc.Latest(cmd.Context(), target)
	}
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	log.Debug("replaying payload", zap.String("path", target), zap.Int("bytes", len(raw)))

	state := coinview.State{CoinID: coinIDFromPath(target)}
	coin, err := coingecko.Decode(raw)
	if err != nil {
		state.Err = true
		state.Cause = err
	} else {
		state.Coin = coin
	}

	page := newBuilder(cfg).Build(state)
	if err := writePage(cmd.OutOrStdout(), cfg.Server.TemplatesDir, page, log); err != nil {
		return err
	}
	if page.Kind == coinview.KindError {
		return fmt.Errorf("replaying %s: %w", target, state.Cause)
	}
	return nil
}

// coinIDFromPath extracts {id} from coins/{id}/{ts}.json; it returns "" for
// paths of any other shape.
func coinIDFromPath(p string) string {
	dir, _ := path.Split(p)
	parent := path.Base(dir)
	if path.Base(path.Dir(path.Clean(dir))) != "coins" {
		return ""
	}
	return parent
}
