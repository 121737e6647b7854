package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/abelbrown/hyperlocal/internal/config"
	"github.com/abelbrown/hyperlocal/internal/filter"
	"github.com/abelbrown/hyperlocal/internal/logging"
	"github.com/abelbrown/hyperlocal/internal/model"
	"github.com/abelbrown/hyperlocal/internal/nav"
	"github.com/abelbrown/hyperlocal/internal/otel"
	"github.com/abelbrown/hyperlocal/internal/persist"
	"github.com/abelbrown/hyperlocal/internal/prefs"
	"github.com/abelbrown/hyperlocal/internal/seed"
	"github.com/abelbrown/hyperlocal/internal/store"
	"github.com/abelbrown/hyperlocal/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type options struct {
	dataDir string
	config  string
	user    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "hyperlocal",
		Short:        "Browse the neighbourhood marketplace",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (default ~/.hyperlocal)")
	root.PersistentFlags().StringVar(&opts.config, "config", "", "config file (default ~/.hyperlocal/config.yaml)")
	root.PersistentFlags().StringVar(&opts.user, "user", "", "identity offered at sign in")

	root.AddCommand(newStoreCmd(opts), newSeedCmd(opts))
	return root
}

// runtime is everything a command needs, opened from config.
type runtime struct {
	cfg     *config.Config
	events  *otel.Logger
	ring    *otel.RingBuffer
	adapter *store.Adapter
	prefs   *prefs.Store

	eventsFile *os.File
}

func setup(opts *options) (*runtime, error) {
	cfg, err := config.Load(opts.config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.user != "" {
		cfg.User = opts.user
	}

	if err := os.MkdirAll(filepath.Join(cfg.DataDir, "logs"), 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := logging.Init(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	rt := &runtime{cfg: cfg, ring: otel.NewRingBuffer(512)}
	rt.eventsFile, err = os.OpenFile(cfg.EventsPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logging.Warn("event trail disabled", "err", err)
		rt.events = otel.NewNullLogger()
	} else {
		rt.events = otel.NewLogger(rt.eventsFile)
	}
	rt.events.SetRingBuffer(rt.ring)
	rt.events.Info(otel.KindStartup, "main", "data_dir="+cfg.DataDir)

	rt.prefs, err = prefs.Open(cfg.PrefsPath(), int(cfg.Storage.PrefsQuotaBytes))
	if err != nil {
		rt.close()
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	rt.adapter = store.NewAdapter(store.PathOpener(cfg.StorePath()), store.WithEvents(rt.events))
	logging.Info("started", "data_dir", cfg.DataDir, "session", rt.events.SessionID())
	return rt, nil
}

func (rt *runtime) close() {
	if rt.adapter != nil {
		if err := rt.adapter.Close(); err != nil {
			logging.Warn("close store", "err", err)
		}
	}
	rt.events.Info(otel.KindShutdown, "main", "")
	rt.events.Close()
	if rt.eventsFile != nil {
		rt.eventsFile.Close()
	}
	logging.Close()
}

func runTUI(ctx context.Context, opts *options) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	posts := persist.NewDebounced(rt.adapter, store.KeyPosts, []model.Post{}, cfg.Storage.BridgeDebounce,
		persist.WithDecoder(model.MergePosts),
		persist.WithEvents[[]model.Post](rt.events),
	)
	accounts := persist.NewDebounced(rt.adapter, store.KeyAccounts, []model.Account{}, cfg.Storage.BridgeDebounce,
		persist.WithDecoder(model.MergeAccounts),
		persist.WithEvents[[]model.Account](rt.events),
	)
	forum := persist.NewDebounced(rt.adapter, store.KeyForumPosts, []model.ForumPost{}, cfg.Storage.BridgeDebounce,
		persist.WithDecoder(model.MergeForumPosts),
		persist.WithEvents[[]model.ForumPost](rt.events),
	)
	comments := persist.NewDebounced(rt.adapter, store.KeyForumComments, []model.Comment{}, cfg.Storage.BridgeDebounce,
		persist.WithDecoder(model.MergeComments),
		persist.WithEvents[[]model.Comment](rt.events),
	)
	// Flush pending writes before the store closes.
	defer comments.Close()
	defer forum.Close()
	defer accounts.Close()
	defer posts.Close()

	var protected []nav.View
	for _, v := range cfg.ProtectedViews {
		protected = append(protected, nav.View(v))
	}

	app := ui.NewApp(ui.AppConfig{
		Prefs:            rt.prefs,
		Posts:            posts,
		Accounts:         accounts,
		Forum:            forum,
		Comments:         comments,
		Durable:          rt.adapter,
		BridgeDebounce:   cfg.Storage.BridgeDebounce,
		User:             cfg.User,
		Protected:        protected,
		PageSize:         cfg.UI.PageSize,
		LoadMoreDelay:    cfg.UI.LoadMoreDelay,
		QueryDebounce:    cfg.UI.QueryDebounce,
		ScrollHideOffset: cfg.UI.ScrollHideOffset,
		HomeLocation:     cfg.UI.HomeLocation,
		AISearch:         localAISearch,
		Events:           rt.events,
		Ring:             rt.ring,
		Ctx:              ctx,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := program.Run()
	if m, ok := final.(ui.App); ok {
		m.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// localAISearch ranks posts with the offline ranker.
func localAISearch(query string, posts []model.Post) tea.Cmd {
	return func() tea.Msg {
		return ui.AISearchDone{Query: query, Results: filter.Rank(query, posts, aiResultLimit)}
	}
}

const aiResultLimit = 20

func newStoreCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect the durable store",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the JSON stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			raw, ok, err := rt.adapter.GetE(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <json>",
		Short: "Store a JSON value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(args[1])) {
				return fmt.Errorf("value is not valid JSON")
			}
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()
			return rt.adapter.SetE(cmd.Context(), args[0], json.RawMessage(args[1]))
		},
	}

	keys := &cobra.Command{
		Use:   "keys",
		Short: "List the known collection keys",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, k := range store.Keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
		},
	}

	cmd.AddCommand(get, set, keys)
	return cmd
}

func newSeedCmd(opts *options) *cobra.Command {
	so := seed.DefaultOptions()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write mock posts, accounts and forum threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := setup(opts)
			if err != nil {
				return err
			}
			defer rt.close()

			ds := seed.Generate(so)
			if err := seed.Write(cmd.Context(), rt.adapter, ds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d accounts, %d posts, %d threads\n",
				len(ds.Accounts), len(ds.Posts), len(ds.ForumPosts))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&so.Seed, "seed", so.Seed, "random seed")
	cmd.Flags().IntVar(&so.Accounts, "accounts", so.Accounts, "number of accounts")
	cmd.Flags().IntVar(&so.Posts, "posts", so.Posts, "number of posts")
	cmd.Flags().IntVar(&so.Forum, "forum", so.Forum, "number of forum threads")
	return cmd
}
