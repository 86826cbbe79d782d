package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"geladeira/api/internal/audit"
	"geladeira/api/internal/auth"
	"geladeira/api/internal/config"
	"geladeira/api/internal/db"
	"geladeira/api/internal/device"
)

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long:  "Reads the password from the first argument or, if absent, from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := auth.NewToken(subject, auth.RoleAdmin, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "relayctl", "Token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")
	return cmd
}

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Send one unlock command to the configured device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			u := device.NewUnlocker(cfg.DeviceHost, cfg.DevicePort)
			if err := u.Unlock(cmd.Context()); err != nil {
				return fmt.Errorf("unlock %s: %w", u.URL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unlock command sent to %s\n", u.URL)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite audit database at AUDIT_DB_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.AuditDBPath == "" {
				return errors.New("AUDIT_DB_PATH is not set")
			}
			sqlite, err := db.OpenSQLite(cfg.AuditDBPath)
			if err != nil {
				return err
			}
			defer sqlite.Close()
			if err := db.Migrate(sqlite); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.AuditDBPath)
			return nil
		},
	}
}

func newTailCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit records from AUDIT_LOG_PATH",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			recs, err := audit.NewFileSink(cfg.AuditLogPath).Recent(context.Background(), n)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			// oldest first, like tail(1)
			for i := len(recs) - 1; i >= 0; i-- {
				if err := enc.Encode(recs[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "lines", "n", 10, "Number of records to print")
	return cmd
}
