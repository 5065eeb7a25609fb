package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dropDatabas3/socialauth/internal/audit"
	"github.com/dropDatabas3/socialauth/internal/cache"
	"github.com/dropDatabas3/socialauth/internal/config"
	"github.com/dropDatabas3/socialauth/internal/domain/repository"
	"github.com/dropDatabas3/socialauth/internal/email"
	v2server "github.com/dropDatabas3/socialauth/internal/http/v2/server"
	"github.com/dropDatabas3/socialauth/internal/http/v2/services"
	"github.com/dropDatabas3/socialauth/internal/observability/logger"
	"github.com/dropDatabas3/socialauth/internal/security/password"
	store "github.com/dropDatabas3/socialauth/internal/store/v2"
)

// connectionView omite los tokens del provider.
type connectionView struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	UID       string `json:"uid"`
	LastLogin string `json:"last_login"`
}

type cli struct {
	configPath string
	out        string // "text" | "json"

	cfg     *config.Config
	factory *store.Factory
}

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "socialctl",
		Short:         "Administración de usuarios y conexiones sociales",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, ServiceName: "socialctl"})
			f, err := v2server.OpenStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			c.cfg, c.factory = cfg, f
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if c.factory != nil {
				return c.factory.Close()
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.PersistentFlags().StringVar(&c.configPath, "config", envOr("CONFIG_PATH", config.DefaultPath), "ruta al config.yaml (env CONFIG_PATH)")
	root.PersistentFlags().StringVar(&c.out, "out", "text", "formato de salida: text|json")

	root.AddCommand(c.migrateCmd(), c.usersCmd(), c.connectionsCmd())
	return root
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes (solo postgres)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.factory.Migrate(cmd.Context())
			if errors.Is(err, store.ErrNotMigratable) {
				fmt.Fprintf(cmd.OutOrStdout(), "driver %s no usa migraciones\n", c.factory.Driver())
				return nil
			}
			if err != nil {
				return err
			}
			return c.print(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "applied=%v skipped=%v took=%s\n", res.Applied, res.Skipped, res.Duration)
			})
		},
	}
}

func (c *cli) usersCmd() *cobra.Command {
	users := &cobra.Command{Use: "users", Short: "Usuarios"}

	var (
		minLen        int
		blacklistPath string
	)
	setPwd := &cobra.Command{
		Use:   "set-password <email>",
		Short: "Fija el password de un usuario (lee el password de stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.userByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			plain := strings.TrimRight(string(raw), "\r\n")
			if ok, reasons := (password.Policy{MinLength: minLen, MaxLength: 256}).Validate(plain, u.Email, u.Username); !ok {
				return fmt.Errorf("password rechazado: %s", strings.Join(reasons, ", "))
			}
			bl, err := password.LoadBlacklist(blacklistPath)
			if err != nil {
				return err
			}
			if bl.Contains(plain) {
				return errors.New("password rechazado: blacklisted")
			}
			hash, err := password.Hash(password.Default, plain)
			if err != nil {
				return err
			}
			if err := c.factory.Users().SetPasswordHash(cmd.Context(), u.ID, hash); err != nil {
				return err
			}
			audit.Log(cmd.Context(), audit.EventPasswordSet, map[string]string{"user_id": u.ID, "via": "socialctl"})
			fmt.Fprintf(cmd.OutOrStdout(), "password actualizado para %s\n", u.ID)
			return nil
		},
	}
	setPwd.Flags().IntVar(&minLen, "min-length", 10, "largo mínimo del password")
	setPwd.Flags().StringVar(&blacklistPath, "blacklist", "", "archivo con passwords prohibidos (uno por línea)")

	users.AddCommand(setPwd)
	return users
}

func (c *cli) connectionsCmd() *cobra.Command {
	conns := &cobra.Command{Use: "connections", Short: "Cuentas sociales conectadas"}

	list := &cobra.Command{
		Use:   "list <email>",
		Short: "Lista las conexiones de un usuario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := c.userByEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			accounts, err := c.factory.SocialAccounts().ListByUser(cmd.Context(), u.ID)
			if err != nil {
				return err
			}
			views := make([]connectionView, 0, len(accounts))
			for _, a := range accounts {
				views = append(views, connectionView{ID: a.ID, Provider: a.Provider, UID: a.UID, LastLogin: a.LastLogin.Format(time.RFC3339)})
			}
			return c.print(cmd, views, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tPROVIDER\tUID\tLAST LOGIN")
				for _, v := range views {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Provider, v.UID, v.LastLogin)
				}
				_ = tw.Flush()
			})
		},
	}

	disconnect := &cobra.Command{
		Use:   "disconnect <email> <provider> <uid>",
		Short: "Desconecta una cuenta social (mismas validaciones que la API)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			u, err := c.userByEmail(ctx, args[0])
			if err != nil {
				return err
			}
			svcs := services.New(services.Deps{
				DAL:     c.factory,
				Cache:   cache.NewMemory("socialctl:"),
				Mailer:  email.NewMailer(email.LogSender{}),
				Account: c.cfg.AccountServiceConfig(),
			})
			acc, err := svcs.Social.Connections.Find(ctx, u.ID, args[1], args[2])
			if err != nil {
				return err
			}
			if err := svcs.Social.Connections.Disconnect(ctx, acc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "desconectado %s/%s\n", acc.Provider, acc.UID)
			return nil
		},
	}

	conns.AddCommand(list, disconnect)
	return conns
}

// userByEmail exige exactamente un usuario con esa dirección.
func (c *cli) userByEmail(ctx context.Context, addr string) (*repository.User, error) {
	users, err := c.factory.Users().FindByEmail(ctx, addr)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, fmt.Errorf("no hay usuario con email %s", addr)
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("%d usuarios comparten el email %s", len(users), addr)
	}
}

func (c *cli) print(cmd *cobra.Command, v any, text func(io.Writer)) error {
	if c.out == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(cmd.OutOrStdout())
	return nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
