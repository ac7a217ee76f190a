package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/target/dns-manager-ui/internal/domain/model"
	apperrors "github.com/target/dns-manager-ui/internal/errors"
	"github.com/target/dns-manager-ui/internal/http/uiutil"
	"github.com/target/dns-manager-ui/internal/service"
)

func newUserCommand(cmdCtx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage local console accounts (AUTH_MODE=password)",
	}
	cmd.AddCommand(
		newUserCreateCommand(cmdCtx),
		newUserSetPasswordCommand(cmdCtx),
		newUserSetRoleCommand(cmdCtx),
		newUserListCommand(cmdCtx),
	)
	return cmd
}

func newUserCreateCommand(cmdCtx *commandContext) *cobra.Command {
	var req model.CreateUserRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			req.Password = password
			return withUserService(cmdCtx, func(ctx context.Context, svc *service.UserService) error {
				user, createErr := svc.Create(ctx, req)
				if createErr != nil {
					return describeUserErr(createErr)
				}
				return writef(cmd.OutOrStdout(), "created %s (%s) with role %s\n", user.Email, user.ID, user.Role)
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "given name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "family name")
	cmd.Flags().StringVar(&req.Role, "role", model.UserRoleUser, "admin, user or guest")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserSetPasswordCommand(cmdCtx *commandContext) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "set-password",
		Short: "Replace an account's password; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			return withUserService(cmdCtx, func(ctx context.Context, svc *service.UserService) error {
				if setErr := svc.SetPassword(ctx, email, password); setErr != nil {
					return describeUserErr(setErr)
				}
				return writef(cmd.OutOrStdout(), "password updated for %s\n", model.NormalizeEmail(email))
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUserSetRoleCommand(cmdCtx *commandContext) *cobra.Command {
	var email, role string
	cmd := &cobra.Command{
		Use:   "set-role",
		Short: "Change an account's role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUserService(cmdCtx, func(ctx context.Context, svc *service.UserService) error {
				if setErr := svc.SetRole(ctx, email, role); setErr != nil {
					return describeUserErr(setErr)
				}
				return writef(cmd.OutOrStdout(), "role of %s set to %s\n", model.NormalizeEmail(email), role)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (required)")
	cmd.Flags().StringVar(&role, "role", "", "admin, user or guest (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newUserListCommand(cmdCtx *commandContext) *cobra.Command {
	var opts model.UserListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts ordered by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUserService(cmdCtx, func(ctx context.Context, svc *service.UserService) error {
				users, err := svc.List(ctx, opts)
				if err != nil {
					return describeUserErr(err)
				}
				return printUsers(cmd.OutOrStdout(), users)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum number of accounts")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "number of accounts to skip")
	return cmd
}

// readPassword reads one line from r. Interactive terminals and pipes are treated the same.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password must be provided on stdin")
	}
	return password, nil
}

// describeUserErr turns classified errors into operator-facing messages.
func describeUserErr(err error) error {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeConflict:
		return fmt.Errorf("account already exists: %w", err)
	case apperrors.ErrCodeNotFound:
		return fmt.Errorf("account not found: %w", err)
	case apperrors.ErrCodeValidation:
		return fmt.Errorf("invalid input: %w", err)
	default:
		return err
	}
}

func printUsers(w io.Writer, users []*model.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "EMAIL\tNAME\tROLE\tSTATUS\tLAST LOGIN\n"); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}
	for _, u := range users {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if name == "" {
			name = "-"
		}
		status := "active"
		if u.Disabled {
			status = "disabled"
		}
		lastLogin := "never"
		if u.LastLoginAt != nil {
			lastLogin = uiutil.FormatFriendlyDateTime(*u.LastLoginAt)
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n", u.Email, name, u.Role, status, lastLogin); err != nil {
			return fmt.Errorf("write user row %q: %w", u.Email, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush users table: %w", err)
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}
