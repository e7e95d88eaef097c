// Package cli is the ediary command-line client: account commands, the entry lifecycle,
// the home summary and an interactive shell.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/ediary-backend/internal/client/api"
	"github.com/AnshRaj112/ediary-backend/internal/client/entries"
	"github.com/AnshRaj112/ediary-backend/internal/client/session"
	"github.com/AnshRaj112/ediary-backend/internal/client/storage"
	"github.com/AnshRaj112/ediary-backend/internal/config"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/logger"
	"github.com/AnshRaj112/ediary-backend/internal/models"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

type globalFlags struct {
	mode    string
	apiURL  string
	dataDir string
	tz      string
}

// cli holds the state shared by every command of one process, including those run from
// the shell.
type cli struct {
	flags globalFlags
	now   func() time.Time
	in    *bufio.Reader
	inSrc io.Reader

	cfg     *config.Client
	kv      *storage.SQLite
	client  *api.Client
	session session.Store
	entries *entries.Repository
}

// Run executes the ediary command line with args.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	c := &cli{now: time.Now}
	defer c.close()

	root := c.root()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (c *cli) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "ediary",
		Short:         "A mood diary for your terminal",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd.Context())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.mode, "mode", "", "storage mode: local, hybrid or remote (env EDIARY_MODE)")
	pf.StringVar(&c.flags.apiURL, "api-url", "", "diary server URL (env EDIARY_API_URL)")
	pf.StringVar(&c.flags.dataDir, "data-dir", "", "directory for local data (env EDIARY_DATA_DIR)")
	pf.StringVar(&c.flags.tz, "tz", "", "IANA time zone for dates, default is the system zone")

	root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.addCmd(),
		c.listCmd(),
		c.showCmd(),
		c.editCmd(),
		c.deleteCmd(),
		c.trashCmd(),
		c.recoverCmd(),
		c.purgeCmd(),
		c.emptyTrashCmd(),
		c.homeCmd(),
		c.statsCmd(),
		c.calendarCmd(),
		c.shellCmd(),
	)
	return root
}

// open loads configuration, storage and the session once per process.
func (c *cli) open(ctx context.Context) error {
	if c.kv != nil {
		return nil
	}

	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if c.flags.mode != "" {
		cfg.Mode = c.flags.mode
	}
	if c.flags.apiURL != "" {
		cfg.APIURL = c.flags.apiURL
	}
	if c.flags.dataDir != "" {
		cfg.DataDir = c.flags.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.New("ediary", cfg.LogLevel, true)

	mode, err := entries.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	kv, err := storage.Open(ctx, cfg.DatabasePath())
	if err != nil {
		return err
	}

	var opts []entries.Option
	if mode != entries.ModeLocal && cfg.APIURL != "" {
		c.client = api.New(cfg.APIURL, cfg.Timeout)
		opts = append(opts, entries.WithRemote(c.client))
	}
	repo := entries.New(kv, mode, opts...)

	var store session.Store
	switch {
	case c.client == nil:
		store = session.NewLocal(kv, session.WithMigrator(repo))
	case mode == entries.ModeHybrid:
		store = session.NewHybrid(
			session.NewRemote(c.client, kv, session.WithMigrator(repo)),
			session.NewLocal(kv, session.WithMigrator(repo)),
		)
	default:
		store = session.NewRemote(c.client, kv, session.WithMigrator(repo))
	}
	if err := store.Hydrate(ctx); err != nil {
		_ = kv.Close()
		return err
	}
	if id := store.Identity(); id != "" {
		if err := repo.Load(ctx, id); err != nil {
			_ = kv.Close()
			return err
		}
	}

	c.cfg, c.kv, c.session, c.entries = cfg, kv, store, repo
	return nil
}

func (c *cli) close() {
	if c.kv != nil {
		_ = c.kv.Close()
		c.kv = nil
	}
}

// user returns the signed-in user or diary.ErrAuthRequired.
func (c *cli) user() (models.User, error) {
	u, ok := c.session.Current()
	if !ok {
		return models.User{}, diary.ErrAuthRequired
	}
	return u, nil
}

// location resolves --tz, defaulting to the system zone.
func (c *cli) location() (*time.Location, error) {
	tz := strings.TrimSpace(c.flags.tz)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, utils.NewValidationError("tz", fmt.Sprintf("Unknown time zone %q", tz))
	}
	return loc, nil
}
