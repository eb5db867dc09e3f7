package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-devflow-backend/internal/fetch"
	"github.com/tbourn/go-devflow-backend/internal/services"
	"github.com/tbourn/go-devflow-backend/internal/sysutil"
)

// newAPICmd talks to a running API through the outbound fetch client.
func newAPICmd(a *app) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Call a running devflow API",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (default: $API_BASE_URL)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default: $FETCH_TIMEOUT)")

	client := func() *fetch.API {
		t := timeout
		if t <= 0 {
			t = a.cfg.FetchTimeout
		}
		return fetch.NewAPI(fetch.NewClient(sysutil.FirstNonEmpty(baseURL, a.cfg.APIBaseURL), t))
	}

	cmd.AddCommand(newAPIUsersCmd(client))
	cmd.AddCommand(newAPIAccountsCmd(client))
	cmd.AddCommand(newAPIOAuthSignInCmd(client))
	return cmd
}

func newAPIUsersCmd(client func() *fetch.API) *cobra.Command {
	cmd := &cobra.Command{Use: "users", Short: "User records"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Users.GetAll(cmd.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get a user by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Users.GetByID(cmd.Context(), args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "by-email <email>",
		Short: "Find a user by email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Users.GetByEmail(cmd.Context(), args[0]))
		},
	})

	var p services.CreateUserParams
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Users.Create(cmd.Context(), p))
		},
	}
	create.Flags().StringVar(&p.Name, "name", "", "Display name")
	create.Flags().StringVar(&p.Username, "username", "", "Username")
	create.Flags().StringVar(&p.Email, "email", "", "Email address")
	create.Flags().StringVar(&p.Bio, "bio", "", "Short biography")
	create.Flags().StringVar(&p.Location, "location", "", "Location")
	cmd.AddCommand(create)

	var name, bio string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up services.UpdateUserParams
			if cmd.Flags().Changed("name") {
				up.Name = &name
			}
			if cmd.Flags().Changed("bio") {
				up.Bio = &bio
			}
			return printResult(cmd, client().Users.Update(cmd.Context(), args[0], up))
		},
	}
	update.Flags().StringVar(&name, "name", "", "Display name")
	update.Flags().StringVar(&bio, "bio", "", "Short biography")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Users.Delete(cmd.Context(), args[0]))
		},
	})
	return cmd
}

func newAPIAccountsCmd(client func() *fetch.API) *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Provider accounts"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Accounts.GetAll(cmd.Context()))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Get an account by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Accounts.GetByID(cmd.Context(), args[0]))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "by-provider <providerAccountId>",
		Short: "Find an account by provider account id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Accounts.GetByProvider(cmd.Context(), args[0]))
		},
	})

	var p services.CreateAccountParams
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Accounts.Create(cmd.Context(), p))
		},
	}
	create.Flags().StringVar(&p.UserID, "user-id", "", "Owning user id")
	create.Flags().StringVar(&p.Name, "name", "", "Display name")
	create.Flags().StringVar(&p.Provider, "provider", "", "credentials|google|github")
	create.Flags().StringVar(&p.ProviderAccountID, "provider-account-id", "", "Id at the provider (the email for credentials)")
	create.Flags().StringVar(&p.Password, "password", "", "Password for credentials accounts")
	cmd.AddCommand(create)

	var name string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up services.UpdateAccountParams
			if cmd.Flags().Changed("name") {
				up.Name = &name
			}
			return printResult(cmd, client().Accounts.Update(cmd.Context(), args[0], up))
		},
	}
	update.Flags().StringVar(&name, "name", "", "Display name")
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Accounts.Delete(cmd.Context(), args[0]))
		},
	})
	return cmd
}

func newAPIOAuthSignInCmd(client func() *fetch.API) *cobra.Command {
	var p services.OAuthParams
	cmd := &cobra.Command{
		Use:   "oauth-signin",
		Short: "Sign in with an identity reported by an OAuth provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printResult(cmd, client().Auth.OAuthSignIn(cmd.Context(), p))
		},
	}
	cmd.Flags().StringVar(&p.Provider, "provider", "github", "google|github")
	cmd.Flags().StringVar(&p.ProviderAccountID, "provider-account-id", "", "Id at the provider")
	cmd.Flags().StringVar(&p.User.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&p.User.Username, "username", "", "Username")
	cmd.Flags().StringVar(&p.User.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&p.User.Image, "image", "", "Avatar URL")
	return cmd
}
