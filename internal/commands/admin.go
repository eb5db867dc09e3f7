package commands

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-devflow-backend/internal/actions"
	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/services"
)

// newAdminCmd groups actions that run directly against the database, as the
// user named by --as (anonymous when empty).
func newAdminCmd(a *app) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Run actions directly against the database",
	}
	cmd.PersistentFlags().StringVar(&as, "as", "", "User id the actions run as")

	withActions := func(cmd *cobra.Command, run func(ctx context.Context, act *actions.Actions) error) error {
		conn := repo.NewConnector(opener(a.cfg, true))
		if _, err := connectWithRetry(cmd.Context(), conn, defaultDBWait); err != nil {
			return err
		}
		defer func() { _ = conn.Close() }()

		var provider auth.Static
		if id := strings.TrimSpace(as); id != "" {
			provider.S = &auth.Session{UserID: id}
		}
		lg := log.Logger
		return run(cmd.Context(), actions.New(actions.Deps{
			Session:          provider,
			Conn:             conn,
			BcryptCost:       a.cfg.BcryptCost,
			SearchCandidates: a.cfg.SearchCandidates,
			Logger:           &lg,
		}))
	}

	cmd.AddCommand(newAdminSignUpCmd(withActions))
	cmd.AddCommand(newAdminUsersCmd(withActions))
	cmd.AddCommand(newAdminQuestionsCmd(withActions))
	cmd.AddCommand(newAdminAskCmd(withActions))
	return cmd
}

type actionRunner func(cmd *cobra.Command, run func(ctx context.Context, act *actions.Actions) error) error

func newAdminSignUpCmd(with actionRunner) *cobra.Command {
	var p services.SignUpParams
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a user with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, act *actions.Actions) error {
				return printResult(cmd, act.SignUpWithCredentials(ctx, p))
			})
		},
	}
	cmd.Flags().StringVar(&p.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&p.Username, "username", "", "Username")
	cmd.Flags().StringVar(&p.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&p.Password, "password", "", "Password")
	return cmd
}

func newAdminUsersCmd(with actionRunner) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, act *actions.Actions) error {
				return printResult(cmd, act.GetUsers(ctx))
			})
		},
	}
}

func newAdminQuestionsCmd(with actionRunner) *cobra.Command {
	var p services.ListParams
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, act *actions.Actions) error {
				return printResult(cmd, act.GetQuestions(ctx, p))
			})
		},
	}
	cmd.Flags().IntVar(&p.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&p.PageSize, "page-size", 20, "Items per page")
	cmd.Flags().StringVar(&p.Query, "query", "", "Filter on title and content")
	cmd.Flags().StringVar(&p.Sort, "sort", "", "newest|oldest|popular|unanswered")
	return cmd
}

func newAdminAskCmd(with actionRunner) *cobra.Command {
	var p services.AskQuestionParams
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask a question as the --as user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd, func(ctx context.Context, act *actions.Actions) error {
				return printResult(cmd, act.CreateQuestion(ctx, p))
			})
		},
	}
	cmd.Flags().StringVar(&p.Title, "title", "", "Question title")
	cmd.Flags().StringVar(&p.Content, "content", "", "Question body")
	cmd.Flags().StringSliceVar(&p.Tags, "tag", nil, "Tag (repeatable)")
	return cmd
}
